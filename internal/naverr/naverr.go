package naverr

import (
	"errors"
	"fmt"

	"github.com/codenav/codenav/internal/types"
)

// Error kinds for the navigation layer
type ErrorKind string

const (
	// Resolution errors
	KindNotFound  ErrorKind = "not_found"
	KindWrongKind ErrorKind = "wrong_kind"

	// Provider errors
	KindProviderUnavailable ErrorKind = "provider_unavailable"

	// Lifecycle errors
	KindCancelled ErrorKind = "cancelled"

	// Input errors
	KindInvalidHint ErrorKind = "invalid_hint"
)

// NotFoundError reports that no symbol matched a hint. It retains the
// full search context so the presentation layer can produce an
// actionable message without re-deriving what was tried.
type NotFoundError struct {
	Kind   ErrorKind
	Name   string
	File   string
	Line   int
	Filter types.KindFilter
}

// NewNotFound creates a not-found error from the hint that failed
func NewNotFound(hint types.LocationHint, filter types.KindFilter) *NotFoundError {
	return &NotFoundError{
		Kind:   KindNotFound,
		Name:   hint.SymbolName,
		File:   hint.FilePath,
		Line:   hint.Line,
		Filter: filter,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	hint := types.LocationHint{SymbolName: e.Name, FilePath: e.File, Line: e.Line}
	if e.Filter != types.KindFilterAny {
		return fmt.Sprintf("no %s symbol matches %s", e.Filter, hint)
	}
	return fmt.Sprintf("no symbol matches %s", hint)
}

// WrongKindError reports that a symbol resolved but is not of the
// category the operation requires (e.g. inheritance on a method).
type WrongKindError struct {
	Kind   ErrorKind
	Symbol types.Symbol
	Want   types.KindFilter
	Got    types.SymbolKind
}

// NewWrongKind creates a wrong-kind error for a resolved symbol
func NewWrongKind(sym types.Symbol, want types.KindFilter) *WrongKindError {
	return &WrongKindError{
		Kind:   KindWrongKind,
		Symbol: sym,
		Want:   want,
		Got:    sym.Kind,
	}
}

// Error implements the error interface
func (e *WrongKindError) Error() string {
	return fmt.Sprintf("symbol %s is a %s, operation requires a %s",
		e.Symbol.DisplayName(), e.Got, e.Want)
}

// ProviderUnavailableError reports that the semantic model is not loaded
// or not ready to answer queries.
type ProviderUnavailableError struct {
	Kind       ErrorKind
	Reason     string
	Underlying error
}

// NewProviderUnavailable creates a provider-unavailable error
func NewProviderUnavailable(reason string, err error) *ProviderUnavailableError {
	return &ProviderUnavailableError{
		Kind:       KindProviderUnavailable,
		Reason:     reason,
		Underlying: err,
	}
}

// Error implements the error interface
func (e *ProviderUnavailableError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("semantic provider unavailable: %s: %v", e.Reason, e.Underlying)
	}
	return fmt.Sprintf("semantic provider unavailable: %s", e.Reason)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *ProviderUnavailableError) Unwrap() error {
	return e.Underlying
}

// InvalidHintError reports a hint that cannot be resolved at all, such
// as one with neither a symbol name nor a file path.
type InvalidHintError struct {
	Kind   ErrorKind
	Hint   types.LocationHint
	Reason string
}

// NewInvalidHint creates an invalid-hint error
func NewInvalidHint(hint types.LocationHint, reason string) *InvalidHintError {
	return &InvalidHintError{
		Kind:   KindInvalidHint,
		Hint:   hint,
		Reason: reason,
	}
}

// Error implements the error interface
func (e *InvalidHintError) Error() string {
	return fmt.Sprintf("invalid hint (%s): %s", e.Hint, e.Reason)
}

// CancelledError marks a batch slot or operation that was abandoned
// because the surrounding context was cancelled. It wraps the context
// error so errors.Is(err, context.Canceled) still holds.
type CancelledError struct {
	Kind       ErrorKind
	Operation  string
	Underlying error
}

// NewCancelled creates a cancelled error wrapping the context error
func NewCancelled(operation string, err error) *CancelledError {
	return &CancelledError{
		Kind:       KindCancelled,
		Operation:  operation,
		Underlying: err,
	}
}

// Error implements the error interface
func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s cancelled: %v", e.Operation, e.Underlying)
}

// Unwrap returns the underlying context error
func (e *CancelledError) Unwrap() error {
	return e.Underlying
}

// KindOf classifies an arbitrary error into the taxonomy, for callers
// that only need the category (batch slots, MCP responses).
func KindOf(err error) ErrorKind {
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return KindNotFound
	}
	var wrongKind *WrongKindError
	if errors.As(err, &wrongKind) {
		return KindWrongKind
	}
	var unavailable *ProviderUnavailableError
	if errors.As(err, &unavailable) {
		return KindProviderUnavailable
	}
	var invalid *InvalidHintError
	if errors.As(err, &invalid) {
		return KindInvalidHint
	}
	var cancelled *CancelledError
	if errors.As(err, &cancelled) {
		return KindCancelled
	}
	return ErrorKind("internal")
}

// IsNotFound reports whether err is a resolution miss
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsCancelled reports whether err represents a cancellation
func IsCancelled(err error) bool {
	var cancelled *CancelledError
	return errors.As(err, &cancelled)
}
