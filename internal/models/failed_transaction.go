package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FailedTransaction is an audit entry for an attempt that never changed a
// balance: webhook anomalies, unverifiable payments, payout failures.
type FailedTransaction struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	TxRef     string          `gorm:"index" json:"tx_ref"`
	UserID    *uint           `gorm:"index" json:"user_id,omitempty"`
	Amount    decimal.Decimal `gorm:"type:numeric(20,2)" json:"amount"`
	Type      string          `gorm:"type:varchar(16);not null" json:"type"`
	Reason    string          `gorm:"not null" json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
}
