package errors

var (
	ErrFailedToInitiatePayment = &DomainError{
		Code:      "FAILED_TO_INITIATE_PAYMENT",
		Message:   "failed to initiate payment",
		Kind:      KindExternal,
		Retryable: true,
	}
	ErrFailedToVerifyPayment = &DomainError{
		Code:      "FAILED_TO_VERIFY_PAYMENT",
		Message:   "failed to verify payment",
		Kind:      KindExternal,
		Retryable: true,
	}
	ErrPayoutFailed = &DomainError{
		Code:    "PAYOUT_FAILED",
		Message: "payout failed",
		Kind:    KindExternal,
	}
	ErrInvalidAccountDetails = &DomainError{
		Code:    "INVALID_ACCOUNT_DETAILS",
		Message: "invalid account details",
		Kind:    KindValidation,
	}
	ErrGatewayUnavailable = &DomainError{
		Code:      "GATEWAY_UNAVAILABLE",
		Message:   "failed to fetch from payment provider",
		Kind:      KindExternal,
		Retryable: true,
	}
	ErrUnsupported = &DomainError{
		Code:    "UNSUPPORTED_OPERATION",
		Message: "operation not supported by the configured payment provider",
		Kind:    KindValidation,
	}
)
