package wallet

import apperrors "purse/internal/errors"

// Service errors
var (
	ErrInvalidAmount        = apperrors.ErrInvalidAmount
	ErrInvalidTransfer      = apperrors.ErrInvalidTransfer
	ErrInsufficientBalance  = apperrors.ErrInsufficientBalance
	ErrDuplicateReference   = apperrors.ErrDuplicateReference
	ErrWithdrawalInProgress = apperrors.ErrWithdrawalInProgress
	ErrPayoutFailed         = apperrors.ErrPayoutFailed
	ErrSettlementFailed     = apperrors.ErrSettlementFailed
	ErrInvalidAccount       = apperrors.ErrInvalidAccountDetails
)
