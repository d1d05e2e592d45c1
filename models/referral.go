package models

import "time"

// ReferralEntry is the append-only audit record of one completed redemption.
// Entries are never updated after insert. The unique index on ReferredID is
// the structural guarantee that an account can be redeemed at most once:
// a racing duplicate insert fails the whole commit transaction.
type ReferralEntry struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	ReferrerID string `gorm:"index;not null" json:"referrer_id"` // owner of the code
	ReferredID string `gorm:"uniqueIndex;not null" json:"referred_id"`

	CodeUsed string `gorm:"not null" json:"code_used"`

	// Award amounts are a snapshot of settings at commit time, not a
	// reference. Later settings changes never alter history.
	ReferrerAward int64 `gorm:"not null" json:"referrer_award"`
	ReferredAward int64 `gorm:"not null" json:"referred_award"`

	CreatedAt time.Time `json:"created_at"`
}
