// services/admin_service.go
package services

import (
	"errors"
	"log"
	"strconv"

	"referral-tracking-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MaxReferralListLimit caps /admin/referrals regardless of the requested limit.
const MaxReferralListLimit = 200

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrNegativeBalance = errors.New("adjustment would drive balance negative")
	ErrImmutableEntry  = errors.New("referral ledger entries are immutable")
)

type AdminService struct {
	DB *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{DB: db}
}

// ListRecentReferrals returns ledger entries, most recent first.
func (s *AdminService) ListRecentReferrals(limit int) ([]models.ReferralEntry, error) {
	if limit <= 0 || limit > MaxReferralListLimit {
		limit = MaxReferralListLimit
	}

	var entries []models.ReferralEntry
	err := s.DB.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// AdjustBalance applies a signed coin delta as a conditional atomic
// increment. The balance non-negativity invariant is enforced in the WHERE
// clause, so a concurrent spend cannot slip the balance below zero between a
// read and a write.
func (s *AdminService) AdjustBalance(accountID string, delta int64) error {
	res := s.DB.Model(&models.Account{}).
		Where("id = ? AND balance + ? >= 0", accountID, delta).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// Distinguish a missing account from a rejected adjustment.
	var count int64
	if err := s.DB.Model(&models.Account{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrAccountNotFound
	}
	return ErrNegativeBalance
}

// RenameAccount updates the locally displayed name. The next profile sync may
// overwrite it; this exists for correcting records between syncs.
func (s *AdminService) RenameAccount(accountID, displayName string) error {
	res := s.DB.Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("display_name", displayName)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// --- HTTP handlers (admin only) ---

// ListReferrals serves GET /admin/referrals?limit=N.
func (s *AdminService) ListReferrals(c *fiber.Ctx) error {
	limit := MaxReferralListLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit parameter"})
		}
		limit = l
	}

	entries, err := s.ListRecentReferrals(limit)
	if err != nil {
		log.Printf("DB Error listing referrals: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch referrals"})
	}

	return c.JSON(fiber.Map{"data": entries})
}

// EditRecord serves PATCH /admin/edit. Arbitrary field editing is not
// supported: only validated operations are exposed, because free-form edits
// can break the redemption invariants (a ledger entry must always match the
// account it marked).
//
// type=user accepts "display_name" (string) and "coins_delta" (integer).
// type=referral is rejected; ledger entries are immutable.
func (s *AdminService) EditRecord(c *fiber.Ctx) error {
	var req struct {
		Type    string                 `json:"type"`
		ID      string                 `json:"id"`
		Changes map[string]interface{} `json:"changes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ID == "" || len(req.Changes) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id and changes are required"})
	}

	switch req.Type {
	case "user":
		return s.editUser(c, req.ID, req.Changes)
	case "referral":
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrImmutableEntry.Error()})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown type: " + req.Type})
	}
}

func (s *AdminService) editUser(c *fiber.Ctx, id string, changes map[string]interface{}) error {
	for key := range changes {
		if key != "display_name" && key != "coins_delta" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported user field: " + key})
		}
	}

	if raw, ok := changes["display_name"]; ok {
		name, ok := raw.(string)
		if !ok || name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "display_name must be a non-empty string"})
		}
		if err := s.RenameAccount(id, name); err != nil {
			return s.editError(c, err)
		}
	}

	if raw, ok := changes["coins_delta"]; ok {
		// JSON numbers decode as float64
		f, ok := raw.(float64)
		if !ok || f != float64(int64(f)) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "coins_delta must be an integer"})
		}
		if err := s.AdjustBalance(id, int64(f)); err != nil {
			return s.editError(c, err)
		}
	}

	return c.JSON(fiber.Map{"success": true})
}

func (s *AdminService) editError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrNegativeBalance):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("DB Error editing record: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to edit record"})
	}
}
