package wallet

import (
	"time"

	"github.com/shopspring/decimal"

	"purse/internal/models"
)

// Config holds configuration for ledger operations
type Config struct {
	Currency         string
	OperationTimeout time.Duration
}

// WithdrawRequest describes a payout to a bank account.
type WithdrawRequest struct {
	Amount        decimal.Decimal
	AccountNumber string
	BankCode      string
}

// TransferResult holds both legs of a transfer.
type TransferResult struct {
	Debit  *models.Transaction
	Credit *models.Transaction
}

type operationOptions struct {
	reference   string
	description string
}

// OperationOption customizes a single ledger operation.
type OperationOption func(*operationOptions)

// WithReference makes the operation idempotent on key: a second operation
// of the same kind with the same key fails with ErrDuplicateReference and
// changes nothing.
func WithReference(key string) OperationOption {
	return func(o *operationOptions) {
		o.reference = key
	}
}

func WithDescription(text string) OperationOption {
	return func(o *operationOptions) {
		o.description = text
	}
}

func applyOptions(opts []OperationOption) operationOptions {
	var o operationOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// MetricsCollector defines the interface for collecting ledger metrics
type MetricsCollector interface {
	// Operation metrics
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)

	// Error metrics
	RecordError(operation, errType string)

	// Transaction metrics
	RecordTransaction(txType string, amount float64)
}
