package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"ppn-chip-sales/internal/adapters/wallet"
	"ppn-chip-sales/internal/core/domain"
)

// WalletService drives the wallet binding protocol:
//
//	Disconnected -> ChallengeRequested -> AwaitingSignature -> Verifying -> {Verified | Rejected}
//
// The external wallet layer is untrusted; a binding counts as usable only
// after the backend accepted its proof. Any verification failure tears the
// external connection down (fail closed).
type WalletService struct {
	api       BackendAPI
	connector wallet.Connector

	mu        sync.Mutex
	binding   domain.WalletBinding
	lastProof string
}

// NewWalletService creates a wallet service over a connector
func NewWalletService(api BackendAPI, connector wallet.Connector) *WalletService {
	return &WalletService{
		api:       api,
		connector: connector,
		binding:   domain.WalletBinding{Status: domain.WalletDisconnected},
	}
}

// RequestConnection obtains a one-time challenge and triggers the external
// wallet UI with it attached.
func (s *WalletService) RequestConnection(ctx context.Context) (string, error) {
	s.setStatus(domain.WalletChallengeRequested)

	challenge, err := s.api.GeneratePayload(ctx)
	if err != nil || challenge == "" {
		// Clear the pending request so the external UI does not hang in a
		// loading state.
		s.connector.ClearConnectRequest()
		s.setStatus(domain.WalletDisconnected)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrChallengeUnavailable, err)
		}
		return "", domain.ErrChallengeUnavailable
	}

	if err := s.connector.RequestConnect(ctx, challenge); err != nil {
		s.setStatus(domain.WalletDisconnected)
		return "", fmt.Errorf("%w: %v", domain.ErrChallengeUnavailable, err)
	}

	s.setStatus(domain.WalletAwaitingSignature)
	return challenge, nil
}

// OnWalletReported handles a connection report from the external wallet
// layer. Idempotent: a proof byte-identical to the last processed one is
// ignored without a server round-trip. Verification runs outside the lock, so
// a completion only applies while its proof is still the active one; a result
// for a superseded proof is dropped.
func (s *WalletService) OnWalletReported(ctx context.Context, address, publicKey string, proof domain.ChallengeProof) error {
	raw, err := json.Marshal(proof)
	if err != nil {
		return fmt.Errorf("%w: malformed proof: %v", domain.ErrProofRejected, err)
	}
	serialized := string(raw)

	s.mu.Lock()
	if s.lastProof == serialized {
		s.mu.Unlock()
		return nil
	}
	s.lastProof = serialized
	s.binding = domain.WalletBinding{
		Address:   address,
		PublicKey: publicKey,
		Proof:     proof,
		Status:    domain.WalletVerifying,
	}
	s.mu.Unlock()

	valid, err := s.api.VerifyProof(ctx, address, publicKey, proof)
	if err != nil {
		s.failClosed(ctx, serialized)
		return fmt.Errorf("%w: %v", domain.ErrProofRejected, err)
	}
	if !valid {
		s.failClosed(ctx, serialized)
		return domain.ErrProofRejected
	}

	now := time.Now()
	s.mu.Lock()
	if s.lastProof != serialized || s.binding.Status != domain.WalletVerifying {
		// A newer proof took over while this one was in flight; its outcome
		// stands, this one is discarded.
		s.mu.Unlock()
		return nil
	}
	s.binding.Status = domain.WalletVerified
	s.binding.VerifiedAt = &now
	s.mu.Unlock()
	log.Printf("wallet verified [address=%s]", address)
	return nil
}

// failClosed tears down the external connection after a failed verification,
// but only while the failed proof is still the active one. The last-seen
// proof is kept so a redundant replay of the same bad proof does not trigger
// another round-trip.
func (s *WalletService) failClosed(ctx context.Context, serialized string) {
	s.mu.Lock()
	if s.lastProof != serialized || s.binding.Status != domain.WalletVerifying {
		s.mu.Unlock()
		return
	}
	s.binding.Status = domain.WalletRejected
	s.binding.VerifiedAt = nil
	s.mu.Unlock()

	if err := s.connector.Disconnect(ctx); err != nil {
		log.Printf("wallet teardown failed: %v", err)
	}
}

// Disconnect tears down the external connection and resets the protocol
func (s *WalletService) Disconnect(ctx context.Context) error {
	err := s.connector.Disconnect(ctx)
	s.mu.Lock()
	s.lastProof = ""
	s.binding = domain.WalletBinding{Status: domain.WalletDisconnected}
	s.mu.Unlock()
	return err
}

// Binding returns a copy of the current wallet binding
func (s *WalletService) Binding() domain.WalletBinding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.binding
}

// Verified reports whether a verified binding exists
func (s *WalletService) Verified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.binding.Status == domain.WalletVerified
}

func (s *WalletService) setStatus(status domain.WalletStatus) {
	s.mu.Lock()
	s.binding.Status = status
	s.mu.Unlock()
}
