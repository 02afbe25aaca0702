package services

import (
	"context"
	"log"
	"sync"
	"time"

	"ppn-chip-sales/internal/adapters/backend"
	"ppn-chip-sales/internal/adapters/persistence/repositories"
	"ppn-chip-sales/internal/adapters/wallet"
	"ppn-chip-sales/internal/config"
	"ppn-chip-sales/internal/core/domain"
)

// AppSession is the per-user object graph: one backend client carrying that
// user's credential, one wallet relay, one flow. Nothing here is shared
// across users.
type AppSession struct {
	Session *domain.Session
	Backend *backend.Client
	Relay   *wallet.Relay
	Wallet  *WalletService
	Flow    *Flow
	Owner   *OwnerService

	mu       sync.Mutex
	lastSeen time.Time
}

// Touch marks the session as recently used
func (s *AppSession) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the time of the last request on this session
func (s *AppSession) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionManager owns the live sessions. Sessions are created by the auth
// exchange, looked up by id on every request and reaped after idling past
// the configured TTL.
type SessionManager struct {
	cfg      *config.Config
	auth     *AuthService
	payments *PaymentService
	prefills repositories.PrefillRepository

	mu       sync.RWMutex
	sessions map[string]*AppSession
}

// NewSessionManager creates a new session manager
func NewSessionManager(
	cfg *config.Config,
	auth *AuthService,
	payments *PaymentService,
	prefills repositories.PrefillRepository,
) *SessionManager {
	return &SessionManager{
		cfg:      cfg,
		auth:     auth,
		payments: payments,
		prefills: prefills,
		sessions: make(map[string]*AppSession),
	}
}

// Start runs the auth exchange and builds the session's object graph.
// Auth failure degrades rather than refuses; the returned session always
// works for the basic purchase path.
func (m *SessionManager) Start(ctx context.Context, attestation string) *AppSession {
	client := backend.NewClient(m.cfg.Backend.BaseURL)
	session, authData := m.auth.Authenticate(ctx, client, attestation)

	relay := wallet.NewRelay()
	walletSvc := NewWalletService(client, relay)

	initialAccount, initialClub := m.loadPrefill(ctx, session.TgUserID)
	flow := NewFlow(session, client, walletSvc, relay, m.payments, m.prefills, initialAccount, initialClub)

	app := &AppSession{
		Session:  session,
		Backend:  client,
		Relay:    relay,
		Wallet:   walletSvc,
		Flow:     flow,
		Owner:    NewOwnerService(client, authData),
		lastSeen: time.Now(),
	}

	m.mu.Lock()
	m.sessions[session.ID] = app
	m.mu.Unlock()
	return app
}

// Get looks up a live session by id and refreshes its idle timer
func (m *SessionManager) Get(id string) (*AppSession, error) {
	m.mu.RLock()
	app, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	app.Touch()
	return app, nil
}

// End tears the session down: wallet disconnected, credential cleared,
// entry removed.
func (m *SessionManager) End(ctx context.Context, id string) {
	m.mu.Lock()
	app, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	if err := app.Wallet.Disconnect(ctx); err != nil {
		log.Printf("session %s: wallet teardown on end: %v", id, err)
	}
	app.Backend.ClearCredential()
}

// SweepExpired reaps sessions idle past the TTL and expires stale transfer
// requests on the surviving ones. Returns the number of reaped sessions.
func (m *SessionManager) SweepExpired(ctx context.Context, now time.Time) int {
	ttl := time.Duration(m.cfg.Flow.SessionTTLMinutes) * time.Minute

	m.mu.Lock()
	var expired []*AppSession
	for id, app := range m.sessions {
		if now.Sub(app.LastSeen()) > ttl {
			expired = append(expired, app)
			delete(m.sessions, id)
			continue
		}
		if n := app.Relay.ExpireStale(now); n > 0 {
			log.Printf("session %s: expired %d stale transfer(s)", id, n)
		}
	}
	m.mu.Unlock()

	for _, app := range expired {
		if err := app.Wallet.Disconnect(ctx); err != nil {
			log.Printf("session %s: wallet teardown on sweep: %v", app.Session.ID, err)
		}
		app.Backend.ClearCredential()
	}
	return len(expired)
}

// Count returns the number of live sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// loadPrefill reads the last-used ids for a returning user. Best effort.
func (m *SessionManager) loadPrefill(ctx context.Context, tgUserID int64) (int64, int64) {
	if m.prefills == nil || tgUserID == 0 {
		return 0, 0
	}
	prefill, err := m.prefills.GetByTgUserID(ctx, tgUserID)
	if err != nil || prefill == nil {
		return 0, 0
	}
	return prefill.AccountShortID, prefill.ClubShortID
}
