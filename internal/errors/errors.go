package errors

import stderrors "errors"

// Kind groups domain errors by how a caller should react to them.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindBusiness       Kind = "business"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindExternal       Kind = "external"
	KindInfrastructure Kind = "infrastructure"
)

// DomainError is a stable, comparable error value. Sentinels are compared by
// identity, so wrap them with fmt.Errorf("%w: ...") to add detail.
type DomainError struct {
	Code      string
	Message   string
	Kind      Kind
	Retryable bool
}

func (e *DomainError) Error() string {
	return e.Message
}

// As returns the first DomainError in err's chain.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsRetryable reports whether err carries a retryable DomainError.
func IsRetryable(err error) bool {
	de, ok := As(err)
	return ok && de.Retryable
}
