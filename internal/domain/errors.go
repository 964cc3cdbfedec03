package domain

import "fmt"

// ValidationError indicates a malformed inbound message batch. It is
// rejected before any store mutation occurs.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// ProviderErrorKind classifies a model-provider failure.
type ProviderErrorKind string

const (
	ProviderErrRateLimited    ProviderErrorKind = "rate_limited"
	ProviderErrRetryExhausted ProviderErrorKind = "retry_exhausted"
	ProviderErrInvalidRequest ProviderErrorKind = "invalid_request"
	ProviderErrUpstream       ProviderErrorKind = "upstream"
)

// ProviderError is a failure surfaced by the model provider. The reconciler
// decides recovery policy; the provider layer never swallows these.
type ProviderError struct {
	Kind       ProviderErrorKind
	Message    string
	StatusCode int
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s [%d]: %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s: %s", e.Kind, e.Message)
}

// StoreError is a durable-write or read failure in the message store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
