package handlers

import (
	"errors"

	"ppn-chip-sales/internal/adapters/http/middleware"
	"ppn-chip-sales/internal/core/domain"
	"ppn-chip-sales/internal/core/services"
	"ppn-chip-sales/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// FlowHandler handles the purchase flow endpoints
type FlowHandler struct{}

// NewFlowHandler creates a new flow handler
func NewFlowHandler() *FlowHandler {
	return &FlowHandler{}
}

// SubmitRequest represents the form submission body
type SubmitRequest struct {
	AccountShortID int64 `json:"account_short_id"`
	ClubShortID    int64 `json:"club_short_id"`
}

// SelectRequest represents a package or custom amount selection
type SelectRequest struct {
	Amount int64 `json:"amount"`
}

// Snapshot returns the current flow state
func (h *FlowHandler) Snapshot(c *fiber.Ctx) error {
	app := middleware.CurrentSession(c)
	return response.Success(c, "", app.Flow.Snapshot())
}

// Submit handles the account/club form submission
func (h *FlowHandler) Submit(c *fiber.Ctx) error {
	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app := middleware.CurrentSession(c)
	err := app.Flow.Submit(c.Context(), req.AccountShortID, req.ClubShortID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingField):
			return response.BadRequest(c, "Account id and club id are required")
		case errors.Is(err, domain.ErrWrongStep):
			return response.Conflict(c, "Flow is not at the form step")
		case errors.Is(err, services.ErrOperationInFlight):
			return response.Conflict(c, "Another operation is still running")
		}
		// Not-allowed and network failures are carried in the snapshot's
		// error state, not as an HTTP failure.
	}
	return response.Success(c, "", app.Flow.Snapshot())
}

// Select handles choosing a chip package or custom amount
func (h *FlowHandler) Select(c *fiber.Ctx) error {
	var req SelectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app := middleware.CurrentSession(c)
	outcome, err := app.Flow.Select(c.Context(), req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Amount must be positive")
		case errors.Is(err, domain.ErrWrongStep):
			return response.Conflict(c, "Flow is not at the packages step")
		case errors.Is(err, services.ErrOperationInFlight):
			return response.Conflict(c, "Another operation is still running")
		case errors.Is(err, domain.ErrChallengeUnavailable):
			return response.InternalServerError(c, "Wallet challenge unavailable, try again")
		default:
			return response.InternalServerError(c, "Selection failed")
		}
	}

	return response.Success(c, "", fiber.Map{
		"outcome": outcome,
		"flow":    app.Flow.Snapshot(),
	})
}

// Confirm dispatches the payment for the selected amount
func (h *FlowHandler) Confirm(c *fiber.Ctx) error {
	app := middleware.CurrentSession(c)
	err := app.Flow.Confirm(c.Context())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrWrongStep):
			return response.Conflict(c, "Flow is not at the summary step")
		case errors.Is(err, services.ErrOperationInFlight):
			return response.Conflict(c, "Another operation is still running")
		}
		// Payment failures land the flow on the error step; the snapshot
		// carries the message.
	}
	return response.Success(c, "", app.Flow.Snapshot())
}

// Back returns from the summary to the packages step
func (h *FlowHandler) Back(c *fiber.Ctx) error {
	app := middleware.CurrentSession(c)
	if err := app.Flow.Back(); err != nil {
		return response.Conflict(c, "Flow is not at the summary step")
	}
	return response.Success(c, "", app.Flow.Snapshot())
}

// Retry restarts the flow after an error
func (h *FlowHandler) Retry(c *fiber.Ctx) error {
	app := middleware.CurrentSession(c)
	if err := app.Flow.Retry(); err != nil {
		return response.Conflict(c, "Flow is not at the error step")
	}
	return response.Success(c, "", app.Flow.Snapshot())
}

// Close restarts the flow after a success
func (h *FlowHandler) Close(c *fiber.Ctx) error {
	app := middleware.CurrentSession(c)
	if err := app.Flow.Close(); err != nil {
		return response.Conflict(c, "Flow is not at the success step")
	}
	return response.Success(c, "", app.Flow.Snapshot())
}
