package repositories

import (
	"context"

	"ppn-chip-sales/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// attemptRepository implements AttemptRepository interface
type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

// Create records a new purchase attempt
func (r *attemptRepository) Create(ctx context.Context, attempt *models.PurchaseAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

// UpdateStatus updates the outcome of a purchase attempt
func (r *attemptRepository) UpdateStatus(ctx context.Context, intentID, status, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseAttempt{}).
		Where("intent_id = ?", intentID).
		Updates(map[string]interface{}{
			"status": status,
			"reason": reason,
		}).Error
}

// ListByClub lists recent attempts for a club, newest first
func (r *attemptRepository) ListByClub(ctx context.Context, clubShortID int64, limit, offset int) ([]*models.PurchaseAttempt, error) {
	var attempts []*models.PurchaseAttempt
	err := r.db.WithContext(ctx).
		Where("club_short_id = ?", clubShortID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

// CountByClub counts all attempts recorded for a club
func (r *attemptRepository) CountByClub(ctx context.Context, clubShortID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseAttempt{}).
		Where("club_short_id = ?", clubShortID).
		Count(&total).Error
	return total, err
}
