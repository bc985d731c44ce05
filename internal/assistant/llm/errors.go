package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailKind classifies a single tier failure.
type FailKind string

const (
	KindMissingCredential FailKind = "missing-credential"
	KindTimeout           FailKind = "timeout"
	KindNetwork           FailKind = "network"
	KindHTTPStatus        FailKind = "http-status"
	KindEmptyResponse     FailKind = "empty-response"
)

// TierError is a failure scoped to one provider tier. It never aborts the
// fallback chain; the orchestrator records it and moves on.
type TierError struct {
	Provider string
	Kind     FailKind
	Err      error
}

func (e *TierError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *TierError) Unwrap() error { return e.Err }

// transportError maps a round-trip failure onto the tier taxonomy.
func transportError(provider string, err error) *TierError {
	kind := KindNetwork
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = KindTimeout
	}
	return &TierError{Provider: provider, Kind: kind, Err: err}
}

// Attempt records one failed tier attempt for diagnostics.
type Attempt struct {
	Provider string
	Kind     FailKind
	Message  string
}

// AggregateError is raised only after every tier has failed. It carries the
// full attempt list for logs and diagnostics while exposing a generic,
// user-safe message that never names internal providers.
type AggregateError struct {
	Attempts []Attempt
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("all provider tiers failed (%d attempts)", len(e.Attempts))
}

// DominantKind returns the most frequent failure kind across attempts.
func (e *AggregateError) DominantKind() FailKind {
	counts := make(map[FailKind]int)
	for _, a := range e.Attempts {
		if a.Kind != "" {
			counts[a.Kind]++
		}
	}
	var best FailKind
	bestN := 0
	for kind, n := range counts {
		if n > bestN {
			best, bestN = kind, n
		}
	}
	return best
}

// UserMessage is the apology surfaced to the end user, flavored coarsely by
// the dominant failure category.
func (e *AggregateError) UserMessage() string {
	switch e.DominantKind() {
	case KindTimeout:
		return "Sorry, the assistant is taking too long to respond right now. Please try again in a moment."
	case KindNetwork:
		return "Sorry, the assistant can't reach its language services right now. Please try again shortly."
	default:
		return "Sorry, the assistant is temporarily unavailable. Please try again later."
	}
}

func attemptFrom(provider string, err error) Attempt {
	a := Attempt{Provider: provider, Message: err.Error()}
	var te *TierError
	if errors.As(err, &te) {
		a.Kind = te.Kind
	}
	return a
}
