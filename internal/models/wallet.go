package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Wallet struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	UserID    uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0;check:chk_wallets_balance_non_negative,balance >= 0" json:"balance"`
	// Held is reserved by withdrawals whose payout is in flight.
	Held      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0;check:chk_wallets_held_within_balance,held >= 0 AND held <= balance" json:"held"`
	Currency  string          `gorm:"not null;default:'NGN'" json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// Wallets only ever gain value through a ledger transaction.
	w.Balance = decimal.Zero
	w.Held = decimal.Zero
	return nil
}

// Available is the part of the balance not reserved by in-flight withdrawals.
func (w *Wallet) Available() decimal.Decimal {
	return w.Balance.Sub(w.Held)
}

// HasSufficientFunds reports whether the unreserved balance can cover amount.
func (w *Wallet) HasSufficientFunds(amount decimal.Decimal) bool {
	return w.Available().GreaterThanOrEqual(amount)
}
