package hantranslate

import (
	"fmt"
	"strings"
)

// StaleUnitError indicates a translation result referenced a unit id from an
// invalidated extraction pass. The result is rejected, never applied to an
// unrelated node that happens to reuse the numeric position.
type StaleUnitError struct {
	ID string
}

func (e *StaleUnitError) Error() string {
	return fmt.Sprintf("stale unit %q: id belongs to an invalidated extraction pass", e.ID)
}

// DetachedElementWarning indicates a unit's owner node was no longer attached
// to the live tree at write time. The unit keeps its last applied state.
type DetachedElementWarning struct {
	ID string
}

func (e *DetachedElementWarning) Error() string {
	return fmt.Sprintf("unit %q: owner node detached from document tree", e.ID)
}

// MissingPlaceholderWarning indicates the translated markup lacked one or
// more expected placeholder tokens. Non-fatal: the affected fragments are
// absent from the written output and any unresolved token text stays visible
// rather than corrupting structure.
type MissingPlaceholderWarning struct {
	ID     string
	Tokens []string
}

func (e *MissingPlaceholderWarning) Error() string {
	return fmt.Sprintf("unit %q: translated markup missing placeholder(s) %s",
		e.ID, strings.Join(e.Tokens, ", "))
}

// ParseError indicates the document or a markup fragment could not be parsed.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates an AI provider failure (API error, rate limit,
// timeout, unsupported language). Scoped to a single call.
type ProviderError struct {
	Message   string
	Cause     error
	Retryable bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a cache operation failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// CountMismatchError indicates the AI returned a different number of
// translations than expected.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("translation count mismatch: expected %d, got %d", e.Expected, e.Got)
}
