package repositories

import (
	"context"

	"ppn-chip-sales/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// prefillRepository implements PrefillRepository interface
type prefillRepository struct {
	db *gorm.DB
}

// NewPrefillRepository creates a new prefill repository
func NewPrefillRepository(db *gorm.DB) PrefillRepository {
	return &prefillRepository{db: db}
}

// GetByTgUserID gets the stored prefill for a Telegram user
func (r *prefillRepository) GetByTgUserID(ctx context.Context, tgUserID int64) (*models.Prefill, error) {
	var prefill models.Prefill
	err := r.db.WithContext(ctx).Where("tg_user_id = ?", tgUserID).First(&prefill).Error
	if err != nil {
		return nil, err
	}
	return &prefill, nil
}

// Save upserts the prefill for a Telegram user
func (r *prefillRepository) Save(ctx context.Context, prefill *models.Prefill) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tg_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_short_id", "club_short_id", "updated_at"}),
	}).Create(prefill).Error
}
