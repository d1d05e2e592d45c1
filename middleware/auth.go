// middleware/auth.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts user identity and roles set by the Gateway.
// Routes that need a caller identity must be registered behind it.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		rolesStr := c.Get("X-User-Roles")

		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		var roles []string
		if rolesStr != "" {
			for _, r := range strings.Split(rolesStr, ",") {
				r = strings.TrimSpace(r)
				if r != "" {
					roles = append(roles, r)
				}
			}
		}

		// Attach to ctx for handlers
		c.Locals("user_id", userID)
		c.Locals("user_roles", roles)

		return c.Next()
	}
}

// AdminOnly gates a route group on the isAdmin predicate: the caller is an
// admin when its verified roles include "admin" or its uid appears in the
// ADMIN_UIDS allow-list. Must run after UserContextMiddleware.
func AdminOnly() fiber.Handler {
	allowList := parseAdminUIDs(os.Getenv("ADMIN_UIDS"))

	return func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		roles, _ := c.Locals("user_roles").([]string)

		if !isAdmin(uid, roles, allowList) {
			log.Printf("🚫 [ADMIN] uid=%s denied on %s", uid, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin access required",
			})
		}
		return c.Next()
	}
}

func isAdmin(uid string, roles []string, allowList map[string]struct{}) bool {
	for _, r := range roles {
		if strings.EqualFold(r, "admin") {
			return true
		}
	}
	if uid == "" {
		return false
	}
	_, ok := allowList[uid]
	return ok
}

func parseAdminUIDs(raw string) map[string]struct{} {
	allowList := make(map[string]struct{})
	for _, uid := range strings.Split(raw, ",") {
		uid = strings.TrimSpace(uid)
		if uid != "" {
			allowList[uid] = struct{}{}
		}
	}
	return allowList
}
