package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"ppn-chip-sales/internal/adapters/http/middleware"
	"ppn-chip-sales/internal/adapters/persistence/repositories"
	"ppn-chip-sales/internal/core/domain"
	"ppn-chip-sales/internal/pkg/pagination"
	"ppn-chip-sales/internal/pkg/response"
)

// OwnerHandler handles the admin surfaces: club listing, insights, balance,
// attempt audit and withdrawal. All routes are behind the AdminOnly
// middleware.
type OwnerHandler struct {
	attempts repositories.AttemptRepository
}

// NewOwnerHandler creates a new owner handler
func NewOwnerHandler(attempts repositories.AttemptRepository) *OwnerHandler {
	return &OwnerHandler{attempts: attempts}
}

// WithdrawRequest represents a withdrawal order body
type WithdrawRequest struct {
	ClubShortID int64           `json:"club_short_id"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// Clubs lists the clubs the owner manages
func (h *OwnerHandler) Clubs(c *fiber.Ctx) error {
	app := middleware.CurrentSession(c)
	clubs, err := app.Owner.LoadClubs(c.Context())
	if err != nil {
		var notAllowed *domain.NotAllowedError
		if errors.As(err, &notAllowed) {
			return response.Forbidden(c, notAllowed.Reason)
		}
		return response.InternalServerError(c, "Failed to load clubs")
	}
	return response.Success(c, "", fiber.Map{"clubs": clubs})
}

// Insights returns the stats for one club. ?reload=1 bypasses the cache.
func (h *OwnerHandler) Insights(c *fiber.Ctx) error {
	clubShortID, err := c.ParamsInt("club")
	if err != nil || clubShortID <= 0 {
		return response.BadRequest(c, "Invalid club id")
	}
	reload := c.Query("reload") == "1"

	app := middleware.CurrentSession(c)
	stats, err := app.Owner.Insights(c.Context(), int64(clubShortID), reload)
	if err != nil {
		var notAllowed *domain.NotAllowedError
		switch {
		case errors.As(err, &notAllowed):
			return response.Forbidden(c, notAllowed.Reason)
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid club id")
		default:
			return response.InternalServerError(c, "Failed to load insights")
		}
	}
	return response.Success(c, "", stats)
}

// Balance returns the club's current stablecoin balance
func (h *OwnerHandler) Balance(c *fiber.Ctx) error {
	clubShortID := int64(c.QueryInt("club_short_id"))
	if clubShortID <= 0 {
		return response.BadRequest(c, "Invalid club id")
	}

	app := middleware.CurrentSession(c)
	balance, err := app.Owner.ClubBalance(c.Context(), clubShortID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load club balance")
	}
	return response.Success(c, "", fiber.Map{"usdt_balance": balance})
}

// Attempts lists the recorded purchase attempts for one club, paginated
func (h *OwnerHandler) Attempts(c *fiber.Ctx) error {
	clubShortID, err := c.ParamsInt("club")
	if err != nil || clubShortID <= 0 {
		return response.BadRequest(c, "Invalid club id")
	}

	window := pagination.FromRequest(c)
	ctx := c.Context()

	total, err := h.attempts.CountByClub(ctx, int64(clubShortID))
	if err != nil {
		return response.InternalServerError(c, "Failed to load attempts")
	}
	attempts, err := h.attempts.ListByClub(ctx, int64(clubShortID), window.PerPage, window.Offset())
	if err != nil {
		return response.InternalServerError(c, "Failed to load attempts")
	}

	return response.Success(c, "", pagination.NewPage(attempts, window, total))
}

// Withdraw submits a withdrawal order. Failures surface both inline and on
// the shared flow error state.
func (h *OwnerHandler) Withdraw(c *fiber.Ctx) error {
	var req WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app := middleware.CurrentSession(c)
	err := app.Owner.Withdraw(c.Context(), app.Session, req.ClubShortID, req.UserID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingField):
			return response.BadRequest(c, "User id and club id are required")
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "Withdrawal refused")
		default:
			app.Flow.RaiseError("Withdrawal failed, try again later.", nil)
			return response.InternalServerError(c, "Withdrawal failed")
		}
	}
	return response.Success(c, "Withdrawal submitted", nil)
}
