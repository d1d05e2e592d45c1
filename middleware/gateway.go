// middleware/gateway.go
package middleware

import (
	"crypto/subtle"
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware admits only requests carrying the shared service
// token, either as a Bearer Authorization header or as X-Service-Token (the
// same header this service sends when polling the profile service). End-user
// identity arrives separately via the X-User-* headers.
func GatewayAuthMiddleware() fiber.Handler {
	expected := os.Getenv("REFERRAL_SERVICE_TOKEN")
	if expected == "" {
		log.Fatal("❌ REFERRAL_SERVICE_TOKEN is not set — service cannot authenticate Gateway")
	}

	return func(c *fiber.Ctx) error {
		// TrimPrefix leaves a raw (un-prefixed) token untouched, so both
		// "Bearer <token>" and a bare token are accepted.
		token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
		if token == "" {
			token = c.Get("X-Service-Token")
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			log.Printf("🚫 [GATEWAY_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		return c.Next()
	}
}
