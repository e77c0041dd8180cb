package agent

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable classification carried by every stage
// error. The orchestrator bases its retry and fallback decisions solely on
// the kind, never on stage-internal error types.
type ErrorKind string

const (
	// KindParse marks unrecoverable input (e.g. an unreadable document).
	KindParse ErrorKind = "ParseError"
	// KindFetch marks a failed URL fetch. Transient.
	KindFetch ErrorKind = "FetchError"
	// KindProvider marks a failed text-completion call. Transient.
	KindProvider ErrorKind = "ProviderError"
	// KindNetwork marks generic network trouble, including timeouts. Transient.
	KindNetwork ErrorKind = "NetworkError"
	// KindSchema marks a structural violation of the canonical schema.
	KindSchema ErrorKind = "SchemaError"
	// KindValidationRejected marks a tailored candidate that failed the
	// fallback engine's checks. Not a failure; it triggers fallback.
	KindValidationRejected ErrorKind = "ValidationRejected"
	// KindAgentCommunication marks a malformed or missing response through
	// the call protocol; the invoked stage is treated as failed.
	KindAgentCommunication ErrorKind = "AgentCommunicationError"
)

// Transient reports whether errors of this kind are worth retrying.
// Schema and validation errors are structural; retrying cannot fix them.
func (k ErrorKind) Transient() bool {
	switch k {
	case KindFetch, KindProvider, KindNetwork:
		return true
	default:
		return false
	}
}

// ErrorDetail is the only error shape that crosses the agent call protocol.
// It carries a kind plus a human-readable message and never wraps a raw
// internal fault value for the caller to depend on.
type ErrorDetail struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *ErrorDetail) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errorf builds an ErrorDetail with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *ErrorDetail {
	return &ErrorDetail{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Classify maps an arbitrary stage error to its ErrorKind. Errors that
// already carry an ErrorDetail keep their kind; context timeouts become
// NetworkError; everything else is a protocol-level stage failure.
func Classify(err error) ErrorKind {
	var detail *ErrorDetail
	if errors.As(err, &detail) {
		return detail.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	return KindAgentCommunication
}

// Detail extracts the ErrorDetail from err, synthesizing one for errors
// that did not originate as an ErrorDetail.
func Detail(err error) *ErrorDetail {
	var detail *ErrorDetail
	if errors.As(err, &detail) {
		return detail
	}
	return &ErrorDetail{Kind: Classify(err), Message: err.Error()}
}
