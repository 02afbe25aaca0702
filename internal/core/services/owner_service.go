package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"ppn-chip-sales/internal/adapters/backend"
	"ppn-chip-sales/internal/core/domain"
)

// OwnerService serves the admin surfaces: club listing, per-club insights and
// withdrawal orders. Insights are memoized per club for the lifetime of the
// session; a stale read is acceptable, an extra round-trip per tab switch is
// not. Reload is explicit.
type OwnerService struct {
	api      BackendAPI
	authData string

	mu    sync.Mutex
	clubs []domain.OwnerClub
	stats map[int64]*domain.OwnerStats
}

// NewOwnerService creates an owner service bound to one attestation string
func NewOwnerService(api BackendAPI, authData string) *OwnerService {
	return &OwnerService{
		api:      api,
		authData: authData,
		stats:    make(map[int64]*domain.OwnerStats),
	}
}

// LoadClubs lists the clubs the owner manages. The answer is cached; later
// calls return the cached list.
func (s *OwnerService) LoadClubs(ctx context.Context) ([]domain.OwnerClub, error) {
	s.mu.Lock()
	if s.clubs != nil {
		clubs := s.clubs
		s.mu.Unlock()
		return clubs, nil
	}
	s.mu.Unlock()

	clubs, err := s.api.OwnerClubs(ctx, s.authData)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.clubs = clubs
	s.mu.Unlock()
	return clubs, nil
}

// Insights returns the owner stats for one club, from cache unless reload is
// set or the club was never fetched.
func (s *OwnerService) Insights(ctx context.Context, clubShortID int64, reload bool) (*domain.OwnerStats, error) {
	if clubShortID == 0 {
		return nil, domain.ErrInvalidInput
	}

	s.mu.Lock()
	if cached, ok := s.stats[clubShortID]; ok && !reload {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	stats, err := s.api.OwnerInsights(ctx, s.authData, clubShortID)
	if err != nil {
		return nil, err
	}
	if !stats.Allowed {
		return nil, &domain.NotAllowedError{Reason: stats.Reason}
	}

	s.mu.Lock()
	s.stats[clubShortID] = stats
	s.mu.Unlock()
	return stats, nil
}

// ClubBalance fetches the club's current stablecoin balance. Never cached:
// it gates a withdrawal.
func (s *OwnerService) ClubBalance(ctx context.Context, clubShortID int64) (decimal.Decimal, error) {
	if clubShortID == 0 {
		return decimal.Zero, domain.ErrInvalidInput
	}
	return s.api.ClubBalance(ctx, clubShortID)
}

// Withdraw submits a withdrawal order. The balance check is advisory; the
// backend is the authority and re-validates everything.
func (s *OwnerService) Withdraw(ctx context.Context, session *domain.Session, clubShortID int64, userID string, amount decimal.Decimal) error {
	if !session.IsAdmin() {
		return domain.ErrForbidden
	}
	if clubShortID == 0 || userID == "" {
		return domain.ErrMissingField
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}

	balance, err := s.api.ClubBalance(ctx, clubShortID)
	if err == nil && amount.GreaterThan(balance) {
		return fmt.Errorf("%w: amount exceeds club balance %s", domain.ErrInvalidAmount, balance.StringFixed(2))
	}

	return s.api.Withdraw(ctx, backend.WithdrawInput{
		UserID:      userID,
		Amount:      amount,
		ClubShortID: clubShortID,
	})
}
