// handlers/admin.go
package handlers

import (
	"referral-tracking-system/middleware"
	"referral-tracking-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, adminService *services.AdminService, settingsService *services.SettingsService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	admin := secured.Group("/admin", middleware.AdminOnly())
	admin.Get("/referrals", adminService.ListReferrals)
	admin.Patch("/edit", adminService.EditRecord)
	admin.Get("/settings/referral", settingsService.GetReferralSettings)
	admin.Post("/settings/referral", settingsService.UpdateReferralSettings)
}
