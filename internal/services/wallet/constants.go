package wallet

import "time"

// Default configuration values
const (
	DefaultCurrency = "NGN"
	DefaultTimeout  = 30 * time.Second
)

// Transaction history paging
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// Claim keys
const (
	WithdrawLockPrefix = "wallet:withdraw:"
)

// Operation names used for metrics, events and the failed-transaction log.
const (
	opFund     = "fund"
	opWithdraw = "withdraw"
	opTransfer = "transfer"
	opRefund   = "refund"
)
