package checkout

import (
	"errors"
	"net/http"
)

const (
	CodeBadRequest            = "BAD_REQUEST"
	CodeNotFound              = "NOT_FOUND"
	CodeConfigError           = "CONFIG_ERROR"
	CodeInvalidSlot           = "INVALID_SLOT"
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodeIdemReuseMismatch     = "IDEMPOTENCY_KEY_REUSE_MISMATCH"
	CodeIdemInProgress        = "IDEMPOTENCY_IN_PROGRESS"
	CodeInvalidStatus         = "INVALID_STATUS"
	CodePaymentTokenNotFound  = "PAYMENT_TOKEN_NOT_FOUND"
	CodePaymentTokenInactive  = "PAYMENT_TOKEN_INACTIVE"
	CodeUnsupportedProvider   = "UNSUPPORTED_PROVIDER"
	CodeMissingIdempotencyKey = "MISSING_IDEMPOTENCY_KEY"
	CodeInternal              = "INTERNAL"
)

// DomainError carries a stable machine-readable code; the HTTP layer maps it
// to a response without inspecting the message.
type DomainError struct {
	Code    string
	Message string
	Status  int
	Details map[string]any
}

func (e *DomainError) Error() string { return e.Code + ": " + e.Message }

func NewDomainError(code, message string, status int) *DomainError {
	return &DomainError{Code: code, Message: message, Status: status}
}

func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	e.Details = details
	return e
}

// AsDomainError returns the DomainError in err's chain, if any.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func notFound(msg string) *DomainError {
	return NewDomainError(CodeNotFound, msg, http.StatusNotFound)
}

func badRequest(msg string) *DomainError {
	return NewDomainError(CodeBadRequest, msg, http.StatusBadRequest)
}
