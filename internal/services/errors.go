package services

import "fmt"

// ErrorKind classifies a payment-subsystem failure so handlers can translate
// it to an HTTP status at the boundary. Nothing is retried internally: retry
// is the caller's job (the provider's webhook redelivery or the client poll).
type ErrorKind string

const (
	// ErrKindConfiguration — required credential missing or rejected. 5xx, not retried.
	ErrKindConfiguration ErrorKind = "configuration"
	// ErrKindValidation — malformed input. 4xx, not retried.
	ErrKindValidation ErrorKind = "validation"
	// ErrKindGatewayUnavailable — network error or 5xx from the provider. 5xx, caller retries.
	ErrKindGatewayUnavailable ErrorKind = "gateway_unavailable"
	// ErrKindNotFound — referenced participation or charge does not exist. 4xx.
	ErrKindNotFound ErrorKind = "not_found"
	// ErrKindPersistence — store write failed after an external side effect.
	// 5xx; the repair path or webhook redelivery closes the window.
	ErrKindPersistence ErrorKind = "persistence"
)

// PaymentError is a classified payment-subsystem error.
type PaymentError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

func newPaymentError(kind ErrorKind, message string, err error) *PaymentError {
	return &PaymentError{Kind: kind, Message: message, Err: err}
}

// HTTPStatus maps the error kind to the status the handler should respond with.
func (e *PaymentError) HTTPStatus() int {
	switch e.Kind {
	case ErrKindValidation:
		return 400
	case ErrKindNotFound:
		return 404
	case ErrKindConfiguration, ErrKindPersistence:
		return 500
	case ErrKindGatewayUnavailable:
		return 502
	default:
		return 500
	}
}
