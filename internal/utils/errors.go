package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ErrMissingToken returns an error for a missing API token.
func ErrMissingToken() error {
	return &ErrorWithSuggestion{
		Err:        errors.New("missing API token"),
		Suggestion: "Run 'yonote auth set' to store your API token",
	}
}

// ErrDocumentNotFound returns an error for when a document is not found.
func ErrDocumentNotFound(id string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("document not found: %s", id),
		Suggestion: "The document may have been deleted upstream; refresh with --refresh-cache",
	}
}

// ErrCollectionNotFound returns an error for when a collection is not found.
func ErrCollectionNotFound(id string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("collection not found: %s", id),
		Suggestion: "Run 'yonote collections list' to see available collections",
	}
}

// ErrAuthenticationFailed returns an error when the service rejects the token.
func ErrAuthenticationFailed() error {
	return &ErrorWithSuggestion{
		Err:        errors.New("authentication rejected by the service"),
		Suggestion: "Verify the token with 'yonote auth info' and set a fresh one if expired",
	}
}

// ErrServiceUnreachable returns an error when the service cannot be reached
// with a context-aware suggestion.
func ErrServiceUnreachable(reason string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("service unreachable: %s", reason),
		Suggestion: getSmartSuggestion(reason),
	}
}

// getSmartSuggestion returns a context-aware suggestion based on the error reason.
func getSmartSuggestion(reason string) string {
	lowerReason := strings.ToLower(reason)

	if strings.Contains(lowerReason, "no such host") || strings.Contains(lowerReason, "dns") {
		return "Check your DNS settings and internet connection"
	}

	if strings.Contains(lowerReason, "connection refused") {
		return "Check if the server is running and accessible"
	}

	if strings.Contains(lowerReason, "timeout") || strings.Contains(lowerReason, "i/o timeout") {
		return "The server may be slow or unreachable. Try again later"
	}

	return "Check your internet connection and try again"
}
