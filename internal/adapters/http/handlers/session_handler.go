package handlers

import (
	"ppn-chip-sales/internal/adapters/http/middleware"
	"ppn-chip-sales/internal/core/services"
	"ppn-chip-sales/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SessionHandler handles session lifecycle endpoints
type SessionHandler struct {
	manager *services.SessionManager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(manager *services.SessionManager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// CreateSessionRequest represents session creation request body
type CreateSessionRequest struct {
	AuthData string `json:"auth_data"`
}

// Create runs the auth exchange and starts a session. Auth failure is not an
// error here; the session comes back degraded instead.
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app := h.manager.Start(c.Context(), req.AuthData)

	return response.Success(c, "Session started", fiber.Map{
		"session_id":  app.Session.ID,
		"role":        app.Session.Role,
		"club_locked": app.Session.ClubLocked(),
		"flow":        app.Flow.Snapshot(),
	})
}

// End tears down the current session
func (h *SessionHandler) End(c *fiber.Ctx) error {
	app := middleware.CurrentSession(c)
	h.manager.End(c.Context(), app.Session.ID)
	return response.Success(c, "Session ended", nil)
}
