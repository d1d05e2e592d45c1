// services/referral_handlers.go
package services

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// GenerateReferral returns the caller's referral code, creating it on first call.
func (s *ReferralService) GenerateReferral(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in context"})
	}

	code, err := s.EnsureCode(userID)
	if err != nil {
		log.Printf("DB Error generating referral code for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate referral code"})
	}

	return c.JSON(fiber.Map{"referralCode": code})
}

// LookupReferral resolves a code to its owner. Public (no user context) so a
// registration screen can show who invited the new user.
func (s *ReferralService) LookupReferral(c *fiber.Ctx) error {
	code := c.Params("code")

	acct, err := s.FindByCode(code)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Referral code not found"})
		}
		log.Printf("DB Error looking up referral code %q: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(fiber.Map{
		"uid":         acct.ID,
		"displayName": acct.DisplayName,
	})
}

// ApplyReferral redeems a code for the calling account.
func (s *ReferralService) ApplyReferral(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req struct {
		NewUID           string `json:"newUid"`
		UsedReferralCode string `json:"usedReferralCode"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := s.Redeem(userID, req.NewUID, req.UsedReferralCode)
	if err != nil {
		status := statusForRedeemError(err)
		if status == fiber.StatusInternalServerError {
			log.Printf("❌ [REFERRAL] redemption failed for uid=%s code=%q: %v", req.NewUID, req.UsedReferralCode, err)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to apply referral"})
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"awarded": fiber.Map{
			"referrerUid":   result.ReferrerID,
			"referrerCoins": result.ReferrerAward,
			"referredCoins": result.ReferredAward,
		},
	})
}

func statusForRedeemError(err error) int {
	switch {
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrAlreadyApplied):
		return fiber.StatusConflict
	case errors.Is(err, ErrCodeNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrSelfReferral),
		errors.Is(err, ErrProfileIncomplete):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
