package services

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"ppn-chip-sales/internal/adapters/backend"
	"ppn-chip-sales/internal/adapters/persistence/models"
	"ppn-chip-sales/internal/adapters/wallet"
	"ppn-chip-sales/internal/core/domain"
)

// stubAPI implements BackendAPI with per-method function fields and call
// counters so tests can script the backend.
type stubAPI struct {
	mu sync.Mutex

	credential   string
	lastInitData string

	authFn        func(ctx context.Context, initData string) (*backend.AuthResult, error)
	previewFn     func(ctx context.Context, accountShortID, clubShortID int64) (*domain.Preview, error)
	depositFn     func(ctx context.Context, accountShortID, clubShortID, chipsAmount int64) (*domain.DepositInstruction, error)
	payloadFn     func(ctx context.Context) (string, error)
	verifyProofFn func(ctx context.Context, address, publicKey string, proof domain.ChallengeProof) (bool, error)

	previewCalls int
	depositCalls int
	payloadCalls int
	verifyCalls  int
}

func (s *stubAPI) SetCredential(credential string) {
	s.mu.Lock()
	s.credential = credential
	s.mu.Unlock()
}

func (s *stubAPI) ClearCredential() {
	s.SetCredential("")
}

func (s *stubAPI) Authenticate(ctx context.Context, initData string) (*backend.AuthResult, error) {
	s.mu.Lock()
	s.lastInitData = initData
	s.mu.Unlock()
	if s.authFn != nil {
		return s.authFn(ctx, initData)
	}
	return &backend.AuthResult{AccessToken: "stub-token", Role: domain.RoleUser}, nil
}

func (s *stubAPI) Preview(ctx context.Context, accountShortID, clubShortID int64) (*domain.Preview, error) {
	s.mu.Lock()
	s.previewCalls++
	s.mu.Unlock()
	if s.previewFn != nil {
		return s.previewFn(ctx, accountShortID, clubShortID)
	}
	return &domain.Preview{Allowed: true, Sale: &domain.SaleTerms{PricePerChip: decimal.NewFromInt(1)}}, nil
}

func (s *stubAPI) DepositData(ctx context.Context, accountShortID, clubShortID, chipsAmount int64) (*domain.DepositInstruction, error) {
	s.mu.Lock()
	s.depositCalls++
	s.mu.Unlock()
	if s.depositFn != nil {
		return s.depositFn(ctx, accountShortID, clubShortID, chipsAmount)
	}
	return &domain.DepositInstruction{DestinationAddress: "EQDest", Memo: "memo-1"}, nil
}

func (s *stubAPI) GeneratePayload(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.payloadCalls++
	s.mu.Unlock()
	if s.payloadFn != nil {
		return s.payloadFn(ctx)
	}
	return "challenge-1", nil
}

func (s *stubAPI) VerifyProof(ctx context.Context, address, publicKey string, proof domain.ChallengeProof) (bool, error) {
	s.mu.Lock()
	s.verifyCalls++
	s.mu.Unlock()
	if s.verifyProofFn != nil {
		return s.verifyProofFn(ctx, address, publicKey, proof)
	}
	return true, nil
}

func (s *stubAPI) ClubBalance(ctx context.Context, clubShortID int64) (decimal.Decimal, error) {
	return decimal.NewFromInt(100), nil
}

func (s *stubAPI) Withdraw(ctx context.Context, input backend.WithdrawInput) error {
	return nil
}

func (s *stubAPI) OwnerClubs(ctx context.Context, authData string) ([]domain.OwnerClub, error) {
	return nil, nil
}

func (s *stubAPI) OwnerInsights(ctx context.Context, authData string, clubShortID int64) (*domain.OwnerStats, error) {
	return &domain.OwnerStats{Allowed: true, ClubShortID: clubShortID}, nil
}

// stubConnector implements wallet.Connector in-process. SendTransfer answers
// immediately with the scripted verdict.
type stubConnector struct {
	mu sync.Mutex

	transferErr   error
	disconnects   int
	clearedCount  int
	lastChallenge string
	sentTransfers []wallet.TransferRequest
}

func (s *stubConnector) RequestConnect(ctx context.Context, challenge string) error {
	s.mu.Lock()
	s.lastChallenge = challenge
	s.mu.Unlock()
	return nil
}

func (s *stubConnector) ClearConnectRequest() {
	s.mu.Lock()
	s.clearedCount++
	s.mu.Unlock()
}

func (s *stubConnector) SendTransfer(ctx context.Context, req wallet.TransferRequest) error {
	s.mu.Lock()
	s.sentTransfers = append(s.sentTransfers, req)
	err := s.transferErr
	s.mu.Unlock()
	return err
}

func (s *stubConnector) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	s.disconnects++
	s.mu.Unlock()
	return nil
}

// stubPrefills implements repositories.PrefillRepository in memory
type stubPrefills struct {
	mu    sync.Mutex
	saved map[int64]*models.Prefill
}

func newStubPrefills() *stubPrefills {
	return &stubPrefills{saved: make(map[int64]*models.Prefill)}
}

func (s *stubPrefills) GetByTgUserID(ctx context.Context, tgUserID int64) (*models.Prefill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefill, ok := s.saved[tgUserID]
	if !ok {
		return nil, errors.New("not found")
	}
	return prefill, nil
}

func (s *stubPrefills) Save(ctx context.Context, prefill *models.Prefill) error {
	s.mu.Lock()
	s.saved[prefill.TgUserID] = prefill
	s.mu.Unlock()
	return nil
}

// stubAttempts implements repositories.AttemptRepository in memory
type stubAttempts struct {
	mu       sync.Mutex
	created  []*models.PurchaseAttempt
	statuses map[string]string
}

func newStubAttempts() *stubAttempts {
	return &stubAttempts{statuses: make(map[string]string)}
}

func (s *stubAttempts) Create(ctx context.Context, attempt *models.PurchaseAttempt) error {
	s.mu.Lock()
	s.created = append(s.created, attempt)
	s.statuses[attempt.IntentID] = attempt.Status
	s.mu.Unlock()
	return nil
}

func (s *stubAttempts) UpdateStatus(ctx context.Context, intentID, status, reason string) error {
	s.mu.Lock()
	s.statuses[intentID] = status
	s.mu.Unlock()
	return nil
}

func (s *stubAttempts) ListByClub(ctx context.Context, clubShortID int64, limit, offset int) ([]*models.PurchaseAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created, nil
}

func (s *stubAttempts) CountByClub(ctx context.Context, clubShortID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.created)), nil
}

// stubResolver implements ton.Resolver
type stubResolver struct {
	address string
	err     error
}

func (s *stubResolver) ResolveJettonWallet(ctx context.Context, ownerAddress string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.address != "" {
		return s.address, nil
	}
	return "EQJettonWallet", nil
}
