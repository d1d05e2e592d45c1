package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	app := fiber.New()

	secured := app.Group("/", UserContextMiddleware())
	secured.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"uid": c.Locals("user_id")})
	})

	admin := secured.Group("/admin", AdminOnly())
	admin.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	return app
}

func TestUserContextRequiresUserID(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("GET", "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("X-User-ID", "u1")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminOnlyRejectsNonAdmins(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("X-User-ID", "u1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("X-User-Roles", "player, admin")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminOnlyHonorsAllowList(t *testing.T) {
	t.Setenv("ADMIN_UIDS", "root-1, root-2")
	app := newTestApp()

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("X-User-ID", "root-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("X-User-ID", "stranger")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestIsAdminPredicate(t *testing.T) {
	allow := parseAdminUIDs("a, b ,")

	assert.True(t, isAdmin("x", []string{"Admin"}, allow))
	assert.True(t, isAdmin("a", nil, allow))
	assert.False(t, isAdmin("x", []string{"player"}, allow))
	assert.False(t, isAdmin("", nil, allow))
}
