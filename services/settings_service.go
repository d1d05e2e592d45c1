// services/settings_service.go
package services

import (
	"errors"
	"log"
	"os"
	"strconv"

	"referral-tracking-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Fallback award amounts when no settings row exists (or a field was never set).
const (
	DefaultReferrerCoins int64 = 50
	DefaultReferredCoins int64 = 20
)

type SettingsService struct {
	DB *gorm.DB

	defaultReferrer int64
	defaultReferred int64
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{
		DB:              db,
		defaultReferrer: envInt64("REFERRAL_DEFAULT_REFERRER_COINS", DefaultReferrerCoins),
		defaultReferred: envInt64("REFERRAL_DEFAULT_REFERRED_COINS", DefaultReferredCoins),
	}
}

func envInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		log.Printf("⚠️ [SETTINGS] Ignoring invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

// Effective returns the current settings merged over defaults. Called at the
// start of every redemption; never cached across requests.
func (s *SettingsService) Effective() (models.RewardSettings, error) {
	settings := models.RewardSettings{
		ID:            models.RewardSettingsRowID,
		ReferrerCoins: s.defaultReferrer,
		ReferredCoins: s.defaultReferred,
	}

	var row models.RewardSettings
	err := s.DB.First(&row, "id = ?", models.RewardSettingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return settings, nil
	}
	if err != nil {
		return settings, err
	}

	if row.ReferrerCoins > 0 {
		settings.ReferrerCoins = row.ReferrerCoins
	}
	if row.ReferredCoins > 0 {
		settings.ReferredCoins = row.ReferredCoins
	}
	settings.RequireCompleteProfile = row.RequireCompleteProfile
	settings.UpdatedAt = row.UpdatedAt
	return settings, nil
}

// UpdateSettingsRequest carries a partial settings update; nil fields are
// left untouched.
type UpdateSettingsRequest struct {
	ReferrerCoins          *int64 `json:"referrerCoins"`
	ReferredCoins          *int64 `json:"referredCoins"`
	RequireCompleteProfile *bool  `json:"requireCompleteProfile"`
}

var ErrInvalidSettings = errors.New("award amounts must be positive integers")

// Update merges the provided fields into the singleton settings row and
// returns the effective merged result. Admin edits are rare and off the hot
// path, so a plain read-merge-save is sufficient here.
func (s *SettingsService) Update(req UpdateSettingsRequest) (models.RewardSettings, error) {
	if (req.ReferrerCoins != nil && *req.ReferrerCoins <= 0) ||
		(req.ReferredCoins != nil && *req.ReferredCoins <= 0) {
		return models.RewardSettings{}, ErrInvalidSettings
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var row models.RewardSettings
		if err := tx.Where(models.RewardSettings{ID: models.RewardSettingsRowID}).
			Attrs(models.RewardSettings{
				ReferrerCoins: s.defaultReferrer,
				ReferredCoins: s.defaultReferred,
			}).
			FirstOrCreate(&row).Error; err != nil {
			return err
		}

		if req.ReferrerCoins != nil {
			row.ReferrerCoins = *req.ReferrerCoins
		}
		if req.ReferredCoins != nil {
			row.ReferredCoins = *req.ReferredCoins
		}
		if req.RequireCompleteProfile != nil {
			row.RequireCompleteProfile = *req.RequireCompleteProfile
		}

		return tx.Save(&row).Error
	})
	if err != nil {
		return models.RewardSettings{}, err
	}

	return s.Effective()
}

// --- HTTP handlers (admin only) ---

// GetReferralSettings returns the effective settings.
func (s *SettingsService) GetReferralSettings(c *fiber.Ctx) error {
	settings, err := s.Effective()
	if err != nil {
		log.Printf("DB Error fetching settings: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch settings"})
	}
	return c.JSON(settings)
}

// UpdateReferralSettings merges the provided fields and saves.
func (s *SettingsService) UpdateReferralSettings(c *fiber.Ctx) error {
	var req UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	saved, err := s.Update(req)
	if err != nil {
		if errors.Is(err, ErrInvalidSettings) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("DB Error updating settings: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update settings"})
	}

	return c.JSON(fiber.Map{"success": true, "saved": saved})
}
