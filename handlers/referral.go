// handlers/referral.go
package handlers

import (
	"referral-tracking-system/middleware"
	"referral-tracking-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupReferralRoutes(app *fiber.App, referralService *services.ReferralService) {
	// 🔓 Public route — no user context, but still requires Gateway auth
	app.Get("/referral/:code", referralService.LookupReferral)

	// 🔐 Secured routes — require user context (userID, roles)
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/generateReferral", referralService.GenerateReferral)
	secured.Post("/applyReferral", referralService.ApplyReferral)
}
