package errors

var (
	ErrInsufficientBalance = &DomainError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient balance",
		Kind:    KindBusiness,
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "amount must be greater than zero with at most two decimal places",
		Kind:    KindValidation,
	}
	ErrWalletNotFound = &DomainError{
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
		Kind:    KindNotFound,
	}
	ErrInvalidTransfer = &DomainError{
		Code:    "INVALID_TRANSFER",
		Message: "invalid transfer",
		Kind:    KindValidation,
	}
	ErrDuplicateReference = &DomainError{
		Code:    "DUPLICATE_REFERENCE",
		Message: "operation with this reference was already applied",
		Kind:    KindConflict,
	}
	ErrWithdrawalInProgress = &DomainError{
		Code:      "WITHDRAWAL_IN_PROGRESS",
		Message:   "another withdrawal is in progress for this wallet",
		Kind:      KindConflict,
		Retryable: true,
	}
	ErrSettlementFailed = &DomainError{
		Code:    "SETTLEMENT_FAILED",
		Message: "payout was sent but the debit could not be settled",
		Kind:    KindInfrastructure,
	}
	ErrImmutableRecord = &DomainError{
		Code:    "IMMUTABLE_RECORD",
		Message: "ledger records cannot be modified",
		Kind:    KindBusiness,
	}
	ErrStoreUnavailable = &DomainError{
		Code:      "STORE_UNAVAILABLE",
		Message:   "ledger store unavailable, try again",
		Kind:      KindInfrastructure,
		Retryable: true,
	}
)
