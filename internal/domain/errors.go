package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDocuments is returned when a directory scan finds no PDF files.
	ErrNoDocuments = errors.New("no PDF files found")

	// ErrEmptyIndex is returned when searching an index with no entries.
	ErrEmptyIndex = errors.New("vector index is empty")

	// ErrNotReady is returned for queries issued before a successful ingest.
	ErrNotReady = errors.New("no documents loaded yet")

	// ErrMalformedQuestion is returned when a generated exam question lacks
	// a valid correct-answer marker line.
	ErrMalformedQuestion = errors.New("question has no valid correct-answer marker")
)

// ConfigError reports an invalid configuration value. Fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// ServiceKind identifies which external service an error came from.
type ServiceKind string

const (
	ServiceEmbedding  ServiceKind = "embedding"
	ServiceCompletion ServiceKind = "completion"
)

// ServiceError wraps a failure from an external model service. The
// operation that triggered the call is aborted; installed state is kept.
type ServiceError struct {
	Service ServiceKind
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service: %v", e.Service, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// AuthError marks an authentication failure against an external service.
// Never retried; surfaced immediately.
type AuthError struct {
	Status string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Status)
}
