package repositories

import (
	"context"

	"ppn-chip-sales/internal/adapters/persistence/models"
)

// PrefillRepository defines prefill storage operations
type PrefillRepository interface {
	GetByTgUserID(ctx context.Context, tgUserID int64) (*models.Prefill, error)
	Save(ctx context.Context, prefill *models.Prefill) error
}

// AttemptRepository defines purchase attempt audit operations
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.PurchaseAttempt) error
	UpdateStatus(ctx context.Context, intentID, status, reason string) error
	ListByClub(ctx context.Context, clubShortID int64, limit, offset int) ([]*models.PurchaseAttempt, error)
	CountByClub(ctx context.Context, clubShortID int64) (int64, error)
}
