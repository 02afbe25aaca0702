package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Prefill represents the last-used account/club values for a Telegram user.
// Best-effort convenience data; writes that fail are swallowed by the caller.
type Prefill struct {
	TgUserID       int64     `gorm:"primaryKey" json:"tg_user_id"`
	AccountShortID int64     `gorm:"not null" json:"account_short_id"`
	ClubShortID    int64     `gorm:"not null" json:"club_short_id"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Prefill) TableName() string {
	return "prefills"
}

// Purchase attempt status values
const (
	AttemptSubmitted = "SUBMITTED"
	AttemptRejected  = "REJECTED"
	AttemptFailed    = "FAILED"
)

// PurchaseAttempt represents one payment submission for audit purposes.
// Settlement itself is asynchronous and tracked by the backend, not here.
type PurchaseAttempt struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	IntentID       string          `gorm:"uniqueIndex;size:36;not null" json:"intent_id"`
	AccountShortID int64           `gorm:"not null" json:"account_short_id"`
	ClubShortID    int64           `gorm:"index;not null" json:"club_short_id"`
	ChipsAmount    int64           `gorm:"not null" json:"chips_amount"`
	AmountUSDT     decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"amount_usdt"`
	Status         string          `gorm:"size:20;not null" json:"status"`
	Reason         string          `gorm:"size:500" json:"reason,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (PurchaseAttempt) TableName() string {
	return "purchase_attempts"
}

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Prefill{},
		&PurchaseAttempt{},
	)
}
