package domain

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind classifies why a provider call produced no record.
type FailureKind string

const (
	FailureNotFound    FailureKind = "not_found"
	FailureTimeout     FailureKind = "timeout"
	FailureTransport   FailureKind = "transport"
	FailureMalformed   FailureKind = "malformed"
	FailureRateLimited FailureKind = "rate_limited"
	FailureCircuitOpen FailureKind = "circuit_open"
	FailureCancelled   FailureKind = "cancelled"
)

// FetchError is the failure half of a provider call result.
type FetchError struct {
	Kind     FailureKind
	Provider Source
	Query    string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s lookup %q: %s: %v", e.Provider, e.Query, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s lookup %q: %s", e.Provider, e.Query, e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError builds a FetchError.
func NewFetchError(kind FailureKind, provider Source, query string, err error) *FetchError {
	return &FetchError{Kind: kind, Provider: provider, Query: query, Err: err}
}

// NotFound reports an empty result.
func NotFound(provider Source, query string) *FetchError {
	return NewFetchError(FailureNotFound, provider, query, nil)
}

// ClassifyFailure maps any error onto a FailureKind. Context errors win over
// the error's own kind so that deadlines read as timeouts.
func ClassifyFailure(err error) FailureKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, context.Canceled):
		return FailureCancelled
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return FailureTransport
}
