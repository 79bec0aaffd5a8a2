// Package errors provides domain-specific errors for the modelbridge application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the closed error taxonomy surfaced to callers.
var (
	// ErrUnknownFamily indicates a model family outside the enumerated set.
	ErrUnknownFamily = errors.New("unknown model family")

	// ErrMissingArtifact indicates an enumerated family whose artifact
	// directory lacks one of the required tokenizer files, or whose
	// artifacts cannot be parsed.
	ErrMissingArtifact = errors.New("tokenizer artifact missing or invalid")

	// ErrTokenizerUnavailable indicates that token counting is not possible
	// for a binding. Recoverable: callers degrade to provider-reported usage.
	ErrTokenizerUnavailable = errors.New("tokenizer unavailable")

	// ErrMalformedPrompt indicates adapted prompt segments that the
	// tokenizer cannot account for exactly. Fatal for the call.
	ErrMalformedPrompt = errors.New("malformed prompt segments")

	// ErrUnsupportedInput indicates arguments a binding declares no support
	// for. Fatal for the call; retrying with identical arguments will fail.
	ErrUnsupportedInput = errors.New("unsupported input for provider")

	// ErrProvider wraps any transport or provider-side failure. Callers may
	// retry per their own policy.
	ErrProvider = errors.New("provider error")
)

// ErrorCode categorizes errors for handling and reporting.
type ErrorCode string

const (
	CodeFamily    ErrorCode = "FAMILY"
	CodeArtifact  ErrorCode = "ARTIFACT"
	CodeTokenizer ErrorCode = "TOKENIZER"
	CodePrompt    ErrorCode = "PROMPT"
	CodeInput     ErrorCode = "INPUT"
	CodeProvider  ErrorCode = "PROVIDER"
	CodeConfig    ErrorCode = "CONFIG"
)

// BridgeError wraps errors with additional context for debugging and handling.
type BridgeError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns a formatted error string including the code, message, and cause if present.
func (e *BridgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for use with errors.Is and errors.As.
func (e *BridgeError) Unwrap() error {
	return e.Cause
}

// NewError creates a new BridgeError with the given code, message, and optional cause.
func NewError(code ErrorCode, message string, cause error) *BridgeError {
	return &BridgeError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds a key-value pair to the error's context and returns the error.
// This allows for method chaining when adding multiple context values.
func WithContext(err *BridgeError, key string, value interface{}) *BridgeError {
	if err.Context == nil {
		err.Context = make(map[string]interface{})
	}
	err.Context[key] = value
	return err
}

// Is reports whether err matches target using errors.Is semantics.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target and sets target to that error value.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Recoverable reports whether the error leaves the invocation path usable.
// Tokenizer resolution failures are recoverable wherever counting is merely
// auxiliary; the caller continues with provider-reported usage only.
func Recoverable(err error) bool {
	return errors.Is(err, ErrTokenizerUnavailable) ||
		errors.Is(err, ErrUnknownFamily) ||
		errors.Is(err, ErrMissingArtifact)
}
