package models

import (
	"time"

	"gorm.io/gorm"
)

// Account is the local mirror of a profile-service user plus the coin and
// referral state owned by this service. Rows are created by the account sync
// worker (or on first touch); balances and referral fields are only ever
// mutated here, never by sync.
type Account struct {
	ID              string     `gorm:"primaryKey" json:"id"` // external profile-service user ID
	DisplayName     string     `gorm:"index" json:"display_name"`
	Balance         int64      `gorm:"not null;default:0" json:"balance"`
	ReferralCode    *string    `gorm:"uniqueIndex" json:"referral_code,omitempty"` // immutable once set
	ReferredByCode  *string    `json:"referred_by_code,omitempty"`
	RedeemedAt      *time.Time `json:"redeemed_at,omitempty"` // idempotency guard — set exactly once
	ProfileComplete bool       `gorm:"default:false" json:"profile_complete"`
	CreatedAt       time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
