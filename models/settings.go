package models

import "time"

// RewardSettingsRowID pins the settings table to a single row.
const RewardSettingsRowID uint = 1

// RewardSettings is the admin-mutable configuration of award amounts.
// It is read fresh at the start of every redemption (never cached), so a
// settings change takes effect for the very next redemption.
type RewardSettings struct {
	ID                     uint      `gorm:"primaryKey" json:"-"`
	ReferrerCoins          int64     `gorm:"not null" json:"referrer_coins"`
	ReferredCoins          int64     `gorm:"not null" json:"referred_coins"`
	RequireCompleteProfile bool      `gorm:"not null;default:false" json:"require_complete_profile"`
	UpdatedAt              time.Time `json:"updated_at"`
}
