package services

import (
	"context"

	"github.com/shopspring/decimal"

	"ppn-chip-sales/internal/adapters/backend"
	"ppn-chip-sales/internal/core/domain"
)

// BackendAPI is the club backend boundary as the services see it.
// Implemented by *backend.Client; stubbed in tests.
type BackendAPI interface {
	SetCredential(credential string)
	ClearCredential()
	Authenticate(ctx context.Context, initData string) (*backend.AuthResult, error)
	Preview(ctx context.Context, accountShortID, clubShortID int64) (*domain.Preview, error)
	DepositData(ctx context.Context, accountShortID, clubShortID, chipsAmount int64) (*domain.DepositInstruction, error)
	GeneratePayload(ctx context.Context) (string, error)
	VerifyProof(ctx context.Context, address, publicKey string, proof domain.ChallengeProof) (bool, error)
	ClubBalance(ctx context.Context, clubShortID int64) (decimal.Decimal, error)
	Withdraw(ctx context.Context, input backend.WithdrawInput) error
	OwnerClubs(ctx context.Context, authData string) ([]domain.OwnerClub, error)
	OwnerInsights(ctx context.Context, authData string, clubShortID int64) (*domain.OwnerStats, error)
}
