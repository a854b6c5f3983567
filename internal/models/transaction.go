package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "purse/internal/errors"
)

type TransactionType string

const (
	TransactionTypeFund     TransactionType = "fund"
	TransactionTypeWithdraw TransactionType = "withdraw"
	TransactionTypeTransfer TransactionType = "transfer"
	TransactionTypeRefund   TransactionType = "refund"
)

type TransactionStatus string

const (
	TransactionStatusSuccessful TransactionStatus = "successful"
	TransactionStatusFailed     TransactionStatus = "failed"
)

// Transaction is an append-only ledger entry. Amount is signed: credits are
// positive, debits negative, whatever the type.
type Transaction struct {
	ID                   uint              `gorm:"primarykey" json:"id"`
	WalletID             uint              `gorm:"index;not null" json:"wallet_id"`
	Type                 TransactionType   `gorm:"type:varchar(16);not null" json:"type"`
	Amount               decimal.Decimal   `gorm:"type:numeric(20,2);not null" json:"amount"`
	Status               TransactionStatus `gorm:"type:varchar(16);not null" json:"status"`
	Reason               *string           `json:"reason,omitempty"`
	Reference            string            `gorm:"uniqueIndex;not null" json:"reference"`
	GroupID              string            `gorm:"index;not null" json:"group_id"`
	ExternalRef          string            `gorm:"index" json:"external_ref,omitempty"`
	CounterpartyWalletID *uint             `json:"counterparty_wallet_id,omitempty"`
	Description          string            `json:"description,omitempty"`
	Metadata             JSON              `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt            time.Time         `gorm:"index" json:"created_at"`
}

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	return apperrors.ErrImmutableRecord
}

func (t *Transaction) BeforeDelete(tx *gorm.DB) error {
	return apperrors.ErrImmutableRecord
}

// IsCredit reports whether the entry increased the wallet balance.
func (t *Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}
