package handlers

import (
	"errors"
	"time"

	"ppn-chip-sales/internal/adapters/http/middleware"
	"ppn-chip-sales/internal/adapters/wallet"
	"ppn-chip-sales/internal/core/domain"
	"ppn-chip-sales/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Long-poll bounds for the wallet outbox
const (
	outboxPollTimeout  = 25 * time.Second
	outboxPollInterval = 250 * time.Millisecond
)

// WalletHandler handles the wallet conduit endpoints. The mini-app frontend
// is the only caller: it reports wallet events in and polls the outbox for
// work to execute against the real wallet.
type WalletHandler struct{}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler() *WalletHandler {
	return &WalletHandler{}
}

// WalletEventRequest represents a wallet connection report
type WalletEventRequest struct {
	Address   string                `json:"address"`
	PublicKey string                `json:"public_key"`
	Proof     domain.ChallengeProof `json:"proof"`
}

// TransferResultRequest represents the wallet's verdict on a staged transfer
type TransferResultRequest struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

// Connect requests a challenge and stages the connect flow
func (h *WalletHandler) Connect(c *fiber.Ctx) error {
	app := middleware.CurrentSession(c)
	challenge, err := app.Wallet.RequestConnection(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Wallet challenge unavailable, try again")
	}
	return response.Success(c, "", fiber.Map{
		"challenge": challenge,
	})
}

// Event handles a wallet status report from the frontend
func (h *WalletHandler) Event(c *fiber.Ctx) error {
	var req WalletEventRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Address == "" {
		return response.BadRequest(c, "Wallet address is required")
	}

	app := middleware.CurrentSession(c)
	if err := app.Wallet.OnWalletReported(c.Context(), req.Address, req.PublicKey, req.Proof); err != nil {
		if errors.Is(err, domain.ErrProofRejected) {
			return response.Forbidden(c, "Wallet proof rejected")
		}
		return response.InternalServerError(c, "Wallet verification failed")
	}

	return response.Success(c, "Wallet verified", fiber.Map{
		"binding": app.Wallet.Binding(),
	})
}

// Disconnect tears down the wallet binding
func (h *WalletHandler) Disconnect(c *fiber.Ctx) error {
	app := middleware.CurrentSession(c)
	if err := app.Wallet.Disconnect(c.Context()); err != nil {
		return response.InternalServerError(c, "Wallet teardown failed")
	}
	return response.Success(c, "Wallet disconnected", nil)
}

// Outbox long-polls for work the frontend should execute: a staged transfer,
// a pending connect challenge, or a disconnect order. Empty answer after the
// poll window means no work.
func (h *WalletHandler) Outbox(c *fiber.Ctx) error {
	app := middleware.CurrentSession(c)

	deadline := time.After(outboxPollTimeout)
	tick := time.NewTicker(outboxPollInterval)
	defer tick.Stop()

	for {
		if item, ok := h.pendingWork(app.Relay); ok {
			return response.Success(c, "", item)
		}

		select {
		case <-c.Context().Done():
			return response.Success(c, "", fiber.Map{})
		case <-deadline:
			return response.Success(c, "", fiber.Map{})
		case <-tick.C:
		}
	}
}

// TransferResult records the wallet's verdict on a staged transfer
func (h *WalletHandler) TransferResult(c *fiber.Ctx) error {
	id := c.Params("id")
	var req TransferResultRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app := middleware.CurrentSession(c)
	if err := app.Relay.Resolve(id, req.Accepted, req.Reason); err != nil {
		switch {
		case errors.Is(err, wallet.ErrNoPendingTransfer):
			return response.NotFound(c, "No pending transfer with this id")
		case errors.Is(err, wallet.ErrTransferResolved):
			return response.Conflict(c, "Transfer already resolved")
		default:
			return response.InternalServerError(c, "Failed to record transfer result")
		}
	}
	return response.Success(c, "Transfer result recorded", nil)
}

// pendingWork returns the first item the frontend should act on. Disconnect
// orders win over everything; reading one acknowledges it.
func (h *WalletHandler) pendingWork(relay *wallet.Relay) (fiber.Map, bool) {
	if relay.DisconnectRequested() {
		return fiber.Map{"type": "disconnect"}, true
	}
	if req, ok := relay.PendingTransfer(); ok {
		return fiber.Map{"type": "transfer", "transfer": req}, true
	}
	if challenge, ok := relay.PendingChallenge(); ok {
		return fiber.Map{"type": "connect", "challenge": challenge}, true
	}
	return nil, false
}
