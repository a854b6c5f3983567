package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	apperrors "purse/internal/errors"
	"purse/internal/models"
)

var (
	ErrWalletNotFound     = apperrors.ErrWalletNotFound
	ErrDuplicateReference = apperrors.ErrDuplicateReference
)

// WalletRepository defines the ledger store operations. Methods that take a
// row lock only make sense on the repository handed to ExecuteInTransaction.
type WalletRepository interface {
	// Reads
	GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error)
	HasReference(ctx context.Context, key string) (bool, error)

	// Locked reads
	GetByUserIDForUpdate(ctx context.Context, userID uint) (*models.Wallet, error)
	GetOrCreateForUpdate(ctx context.Context, userID uint, currency string) (*models.Wallet, error)

	// Mutations
	UpdateBalance(ctx context.Context, walletID uint, balance decimal.Decimal) error
	UpdateHeld(ctx context.Context, walletID uint, held decimal.Decimal) error
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	ClaimReference(ctx context.Context, ref *models.ProcessedReference) error

	// ExecuteInTransaction runs fn against a repository bound to one database
	// transaction. Returning an error rolls everything back.
	ExecuteInTransaction(ctx context.Context, fn func(WalletRepository) error) error
}

// FailedTransactionRepository persists the failed-transaction audit log.
type FailedTransactionRepository interface {
	Create(ctx context.Context, entry *models.FailedTransaction) error
}
