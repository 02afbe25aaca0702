package middleware

import (
	"ppn-chip-sales/internal/core/services"
	"ppn-chip-sales/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// sessionKey is the locals key the resolved session is stored under
const sessionKey = "appSession"

// SessionMiddleware resolves the X-Session-ID header into a live session and
// stores it in the request locals.
func SessionMiddleware(manager *services.SessionManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Session-ID")
		if id == "" {
			return response.Unauthorized(c, "Session id required")
		}

		app, err := manager.Get(id)
		if err != nil {
			return response.Unauthorized(c, "Session expired or unknown")
		}

		c.Locals(sessionKey, app)
		return c.Next()
	}
}

// AdminOnly allows only sessions authenticated with the admin role. Must run
// after SessionMiddleware.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		app := CurrentSession(c)
		if app == nil || !app.Session.IsAdmin() {
			return response.Forbidden(c, "Admin role required")
		}
		return c.Next()
	}
}

// CurrentSession returns the session resolved by SessionMiddleware, or nil
func CurrentSession(c *fiber.Ctx) *services.AppSession {
	app, _ := c.Locals(sessionKey).(*services.AppSession)
	return app
}
