// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages. This enables better error categorization, logging,
// and user experience by providing context-aware error information.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// making it easier to handle different types of failures appropriately.
package errors

import "fmt"

// Kind is a machine-readable error category.
type Kind string

const (
	// ConnectFailed indicates the TDS connection to an instance could not be established.
	ConnectFailed Kind = "connect_failed"
	// QueryFailed indicates a query or statement failed on the server.
	QueryFailed Kind = "query_failed"
	// ParseFailed indicates server output could not be interpreted.
	ParseFailed Kind = "parse_failed"
	// ValidationFailed indicates user input or server state blocks the operation.
	ValidationFailed Kind = "validation_failed"
	// NotSupported indicates the server version or edition lacks the feature.
	NotSupported Kind = "not_supported"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As chains.
func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of an *E error, or empty string for other errors.
func KindOf(err error) Kind {
	if e, ok := err.(*E); ok {
		return e.Kind
	}
	return ""
}
