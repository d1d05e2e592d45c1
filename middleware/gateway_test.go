package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayAuth(t *testing.T) {
	t.Setenv("REFERRAL_SERVICE_TOKEN", "svc-secret")

	app := fiber.New()
	app.Use(GatewayAuthMiddleware())
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	cases := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"missing token", "", "", fiber.StatusUnauthorized},
		{"wrong bearer token", "Authorization", "Bearer nope", fiber.StatusUnauthorized},
		{"bearer token", "Authorization", "Bearer svc-secret", fiber.StatusOK},
		{"raw authorization token", "Authorization", "svc-secret", fiber.StatusOK},
		{"service token header", "X-Service-Token", "svc-secret", fiber.StatusOK},
		{"wrong service token", "X-Service-Token", "nope", fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ping", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
