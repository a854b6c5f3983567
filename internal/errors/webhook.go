package errors

var (
	ErrInvalidWebhookData = &DomainError{
		Code:    "INVALID_WEBHOOK_DATA",
		Message: "invalid data",
		Kind:    KindValidation,
	}
	ErrInvalidTransactionDetails = &DomainError{
		Code:    "INVALID_TRANSACTION_DETAILS",
		Message: "invalid transaction details",
		Kind:    KindValidation,
	}
	ErrInvalidSignature = &DomainError{
		Code:    "INVALID_SIGNATURE",
		Message: "invalid signature",
		Kind:    KindValidation,
	}
)
