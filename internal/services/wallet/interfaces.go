package wallet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"purse/internal/models"
	"purse/internal/services/gateway"
)

// Service defines the ledger engine interface
type Service interface {
	// Balance mutations
	Fund(ctx context.Context, userID uint, amount decimal.Decimal, opts ...OperationOption) (*models.Transaction, error)
	Withdraw(ctx context.Context, userID uint, req WithdrawRequest, opts ...OperationOption) (*models.Transaction, error)
	Transfer(ctx context.Context, fromUserID, toUserID uint, amount decimal.Decimal, opts ...OperationOption) (*TransferResult, error)
	Refund(ctx context.Context, userID uint, amount decimal.Decimal, opts ...OperationOption) (*models.Transaction, error)

	// Reads
	GetBalance(ctx context.Context, userID uint) (decimal.Decimal, error)
	GetTransactionHistory(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error)

	// Gateway pass-through
	InitiateFunding(ctx context.Context, userID uint, email string, amount decimal.Decimal) (string, error)
	ListBanks(ctx context.Context) ([]gateway.Bank, error)
	ResolveAccount(ctx context.Context, bankCode, accountNumber string) (*gateway.AccountDetails, error)
}

// Locker grants short-lived exclusive claims on a key.
type Locker interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// EventPublisher receives ledger events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, event models.LedgerEvent) error
}
