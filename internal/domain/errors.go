// Package domain holds shared value types and the error taxonomy used across
// the ingestion and reconciliation engine.
package domain

import "fmt"

// ProviderError indicates an adapter's fetch failed at the transport, auth, or
// rate-limit level. It aborts the current import run.
type ProviderError struct {
	Provider string
	Status   int // HTTP status when applicable, 0 otherwise
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s provider error (status %d): %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// PersistenceError indicates a store read/write failed. During an import run a
// single record's persistence failure is recorded and the run continues.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ConfigurationError indicates missing credentials or project mapping. It is
// detected before any network call so a run never partially executes.
type ConfigurationError struct {
	Provider string
	Missing  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s configuration error: missing %s", e.Provider, e.Missing)
}

// ValidationError indicates a malformed raw record (e.g. an unparseable date).
// It is treated like a per-record persistence failure: skip, record, continue.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}
