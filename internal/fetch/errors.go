package fetch

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies acquisition failures for the orchestrator's retry policy.
type Kind int

const (
	// InvalidSource means the URL is malformed or unsupported by the engine.
	InvalidSource Kind = iota
	// NetworkFailure is transient and eligible for a bounded retry.
	NetworkFailure
	// EngineFailure is a transcode/extraction error, not retried.
	EngineFailure
	// NotFound means the engine claimed success but produced no output file.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case InvalidSource:
		return "invalid_source"
	case NetworkFailure:
		return "network_failure"
	case EngineFailure:
		return "engine_failure"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a classified acquisition failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the classification of err, or EngineFailure when err is not
// a fetch error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return EngineFailure
}

// Retryable reports whether err is worth another attempt at the adapter layer.
func Retryable(err error) bool {
	return KindOf(err) == NetworkFailure
}

// classify maps engine stderr to an error kind. The markers come from yt-dlp's
// message vocabulary.
func classify(stderr string, runErr error) *Error {
	low := strings.ToLower(stderr)
	switch {
	case strings.Contains(low, "unsupported url"),
		strings.Contains(low, "is not a valid url"),
		strings.Contains(low, "incomplete youtube id"):
		return &Error{Kind: InvalidSource, Err: runErr}
	case strings.Contains(low, "unable to download"),
		strings.Contains(low, "connection"),
		strings.Contains(low, "timed out"),
		strings.Contains(low, "temporary failure"),
		strings.Contains(low, "network"):
		return &Error{Kind: NetworkFailure, Err: runErr}
	default:
		return &Error{Kind: EngineFailure, Err: runErr}
	}
}
