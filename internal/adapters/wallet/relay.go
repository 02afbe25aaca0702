package wallet

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Relay errors
var (
	ErrTransferExpired   = errors.New("transfer request expired")
	ErrNoPendingTransfer = errors.New("no pending transfer with this id")
	ErrTransferResolved  = errors.New("transfer already resolved")
)

// Relay implements Connector by handing wallet work to the mini-app frontend
// over HTTP. The frontend polls the outbox, executes the pending item against
// the real wallet, and posts the result back; SendTransfer blocks until then.
// One Relay serves one mini-app session.
type Relay struct {
	mu sync.Mutex

	challenge    string
	hasChallenge bool
	disconnect   bool

	transfers map[string]*pendingTransfer
}

type pendingTransfer struct {
	req      TransferRequest
	done     chan error
	resolved bool
}

// NewRelay creates a relay with no pending work
func NewRelay() *Relay {
	return &Relay{
		transfers: make(map[string]*pendingTransfer),
	}
}

// RequestConnect stages the challenge for the frontend to pick up
func (r *Relay) RequestConnect(ctx context.Context, challenge string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenge = challenge
	r.hasChallenge = true
	r.disconnect = false
	return nil
}

// ClearConnectRequest drops a staged challenge
func (r *Relay) ClearConnectRequest() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenge = ""
	r.hasChallenge = false
}

// PendingChallenge returns the staged challenge, if any
func (r *Relay) PendingChallenge() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.challenge, r.hasChallenge
}

// DisconnectRequested reports whether the frontend should tear down the
// wallet connection on its side. Reading it acknowledges the request.
func (r *Relay) DisconnectRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	requested := r.disconnect
	r.disconnect = false
	return requested
}

// SendTransfer stages the transfer and blocks until the frontend posts the
// wallet's verdict, the context is cancelled, or the validity window closes.
func (r *Relay) SendTransfer(ctx context.Context, req TransferRequest) error {
	pending := &pendingTransfer{
		req:  req,
		done: make(chan error, 1),
	}

	r.mu.Lock()
	r.transfers[req.ID] = pending
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.transfers, req.ID)
		r.mu.Unlock()
	}()

	expiry := time.NewTimer(time.Until(req.ValidUntil))
	defer expiry.Stop()

	select {
	case err := <-pending.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-expiry.C:
		return ErrTransferExpired
	}
}

// PendingTransfer returns the transfer the frontend should execute, if any
func (r *Relay) PendingTransfer() (TransferRequest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pending := range r.transfers {
		if !pending.resolved {
			return pending.req, true
		}
	}
	return TransferRequest{}, false
}

// Resolve records the wallet's verdict for a staged transfer and unblocks the
// waiting SendTransfer call. reason carries the wallet's failure text when the
// transfer was not accepted.
func (r *Relay) Resolve(id string, accepted bool, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, ok := r.transfers[id]
	if !ok {
		return ErrNoPendingTransfer
	}
	if pending.resolved {
		return ErrTransferResolved
	}
	pending.resolved = true

	if accepted {
		pending.done <- nil
	} else {
		if reason == "" {
			reason = "transfer rejected by wallet"
		}
		pending.done <- errors.New(reason)
	}
	return nil
}

// ExpireStale fails every staged transfer whose validity window has closed.
// Returns the number of transfers expired.
func (r *Relay) ExpireStale(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	expired := 0
	for _, pending := range r.transfers {
		if !pending.resolved && now.After(pending.req.ValidUntil) {
			pending.resolved = true
			pending.done <- ErrTransferExpired
			expired++
		}
	}
	return expired
}

// Disconnect clears all staged work and flags the frontend to drop the
// external connection.
func (r *Relay) Disconnect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.challenge = ""
	r.hasChallenge = false
	r.disconnect = true

	for id, pending := range r.transfers {
		if !pending.resolved {
			pending.resolved = true
			pending.done <- errors.New("wallet disconnected")
		}
		delete(r.transfers, id)
	}
	return nil
}
