// services/referral_service.go
package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"referral-tracking-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Redemption outcomes. Each maps to a distinct HTTP status in the handlers.
var (
	ErrForbidden         = errors.New("a referral can only be applied by the account it targets")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrAlreadyApplied    = errors.New("referral already applied for this account")
	ErrCodeNotFound      = errors.New("referral code not found")
	ErrSelfReferral      = errors.New("self-referral is not allowed")
	ErrProfileIncomplete = errors.New("profile must be completed before applying a referral")
)

type ReferralService struct {
	DB       *gorm.DB
	Settings *SettingsService
}

func NewReferralService(db *gorm.DB, settings *SettingsService) *ReferralService {
	return &ReferralService{DB: db, Settings: settings}
}

// RedemptionResult is the successful outcome of Redeem.
type RedemptionResult struct {
	ReferrerID    string
	ReferrerAward int64
	ReferredAward int64
}

// EnsureAccount returns the account for uid, creating a bare row if the sync
// worker has not mirrored it yet. Registration itself happens in the profile
// service; this only guarantees a local row to hang referral state on.
func (s *ReferralService) EnsureAccount(uid string) (*models.Account, error) {
	var acct models.Account
	err := s.DB.Where(models.Account{ID: uid}).FirstOrCreate(&acct).Error
	if err != nil && isUniqueViolation(err) {
		// lost the first-touch create race; the row exists now
		err = s.DB.First(&acct, "id = ?", uid).Error
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// EnsureCode returns the account's referral code, generating and persisting
// one on first call. Codes embed wall-clock time, so regeneration would yield
// a different value; the contract is generate once, persist, and always
// return the persisted value afterwards. The conditional write on
// "referral_code IS NULL" makes a concurrent first call safe: exactly one
// generated code wins and both callers observe it.
func (s *ReferralService) EnsureCode(accountID string) (string, error) {
	if accountID == "" {
		return "", ErrInvalidRequest
	}

	acct, err := s.EnsureAccount(accountID)
	if err != nil {
		return "", err
	}
	if acct.ReferralCode != nil && *acct.ReferralCode != "" {
		return *acct.ReferralCode, nil
	}

	for attempt := 0; attempt < 5; attempt++ {
		code := buildReferralCode(accountID)

		res := s.DB.Model(&models.Account{}).
			Where("id = ? AND referral_code IS NULL", accountID).
			Update("referral_code", code)
		if res.Error != nil {
			if isUniqueViolation(res.Error) {
				// another account already holds this code; try a fresh one
				continue
			}
			return "", res.Error
		}
		if res.RowsAffected == 1 {
			return code, nil
		}

		// Lost the generation race: a concurrent request persisted first.
		var current models.Account
		if err := s.DB.First(&current, "id = ?", accountID).Error; err != nil {
			return "", err
		}
		if current.ReferralCode != nil && *current.ReferralCode != "" {
			return *current.ReferralCode, nil
		}
	}

	return "", fmt.Errorf("could not assign a unique referral code for account %s", accountID)
}

// buildReferralCode derives a shareable code: a short slice of the account id
// for readability, then six uppercase hex chars hashed from the id and the
// current time. Example: "U1-A1B2C3".
func buildReferralCode(accountID string) string {
	prefix := strings.ToUpper(strings.ReplaceAll(slug.Make(accountID), "-", ""))
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	if prefix == "" {
		prefix = "RF"
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", accountID, time.Now().UnixNano())))
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(hex.EncodeToString(sum[:3])))
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}

// FindByCode resolves a referral code to its owning account. The code column
// is uniquely indexed, so more than one match is a data-integrity anomaly; it
// is logged and the first row by primary-key order wins deterministically.
func (s *ReferralService) FindByCode(code string) (*models.Account, error) {
	if code == "" {
		return nil, ErrCodeNotFound
	}

	var matches []models.Account
	if err := s.DB.Where("referral_code = ?", code).
		Order("id ASC").Limit(2).Find(&matches).Error; err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrCodeNotFound
	}
	if len(matches) > 1 {
		log.Printf("⚠️ [REFERRAL] integrity anomaly: code %q resolves to multiple accounts, using %s", code, matches[0].ID)
	}
	return &matches[0], nil
}

// Redeem applies a referral code to newAccountID exactly once: it credits the
// referrer, credits and marks the redeemed account, and appends one ledger
// entry, all inside a single transaction.
//
// The idempotency guard is re-checked at commit time by the conditional claim
// update ("redeemed_at IS NULL"), so the loser of a double-redemption race
// gets ErrAlreadyApplied no matter what its earlier pre-read saw. Balance
// credits are expressed as store-native atomic increments, never
// read-modify-write, so concurrent redemptions crediting the same referrer
// cannot lose updates.
func (s *ReferralService) Redeem(requesterID, newAccountID, code string) (*RedemptionResult, error) {
	if newAccountID != requesterID {
		return nil, ErrForbidden
	}
	if newAccountID == "" || code == "" {
		return nil, ErrInvalidRequest
	}

	target, err := s.EnsureAccount(newAccountID)
	if err != nil {
		return nil, err
	}
	// Fail fast for callers; correctness does not depend on this pre-read.
	if target.RedeemedAt != nil {
		return nil, ErrAlreadyApplied
	}

	referrer, err := s.FindByCode(code)
	if err != nil {
		return nil, err
	}
	if referrer.ID == newAccountID {
		return nil, ErrSelfReferral
	}

	settings, err := s.Settings.Effective()
	if err != nil {
		return nil, err
	}
	if settings.RequireCompleteProfile && !target.ProfileComplete {
		return nil, ErrProfileIncomplete
	}

	now := time.Now().UTC()
	entry := models.ReferralEntry{
		ID:            uuid.NewString(),
		ReferrerID:    referrer.ID,
		ReferredID:    newAccountID,
		CodeUsed:      code,
		ReferrerAward: settings.ReferrerCoins,
		ReferredAward: settings.ReferredCoins,
		CreatedAt:     now,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Conditional claim: marks the account redeemed and credits it in one
		// statement. Zero rows affected means another redemption committed
		// between our pre-read and now.
		claim := tx.Model(&models.Account{}).
			Where("id = ? AND redeemed_at IS NULL", newAccountID).
			Updates(map[string]interface{}{
				"referred_by_code": code,
				"redeemed_at":      now,
				"balance":          gorm.Expr("balance + ?", settings.ReferredCoins),
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return ErrAlreadyApplied
		}

		credit := tx.Model(&models.Account{}).
			Where("id = ?", referrer.ID).
			Update("balance", gorm.Expr("balance + ?", settings.ReferrerCoins))
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected == 0 {
			return fmt.Errorf("referrer account %s disappeared during commit", referrer.ID)
		}

		// The ReferredID unique index backstops the claim: if two claims ever
		// slipped through, the second insert fails and rolls everything back.
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	return &RedemptionResult{
		ReferrerID:    referrer.ID,
		ReferrerAward: settings.ReferrerCoins,
		ReferredAward: settings.ReferredCoins,
	}, nil
}
