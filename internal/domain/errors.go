package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedBackend signals a configured backend name with no implementation.
	ErrUnsupportedBackend = errors.New("unsupported backend")
	// ErrProviderUnavailable signals an unreachable embedding backend.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	// ErrIndexNotFound signals that no persisted index exists at the configured location.
	ErrIndexNotFound = errors.New("vector index not found")
	// ErrIndexNotReady signals a search against an index that was never loaded or built.
	ErrIndexNotReady = errors.New("vector index not ready")
	// ErrRetrievalUnavailable signals that schema retrieval cannot run, typically
	// because the ingestion step has not produced an index yet.
	ErrRetrievalUnavailable = errors.New("schema retrieval unavailable")
	// ErrNoSchemaContext signals that retrieval found nothing relevant to the question.
	ErrNoSchemaContext = errors.New("no schema context found for question")
	// ErrEmptyContext signals a synthesis attempt without any schema grounding.
	ErrEmptyContext = errors.New("empty schema context")
	// ErrGenerationFailed signals a language model error or unparsable model output.
	ErrGenerationFailed = errors.New("sql generation failed")
	// ErrUnsafeQuery signals a validator rejection of generated SQL.
	ErrUnsafeQuery = errors.New("unsafe query")
	// ErrExecutionFailed signals that the warehouse rejected or errored on validated SQL.
	ErrExecutionFailed = errors.New("query execution failed")
)

// UnsafeQueryError wraps ErrUnsafeQuery with the validator's reason string.
type UnsafeQueryError struct {
	Reason string
}

func (e *UnsafeQueryError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsafeQuery.Error(), e.Reason)
}

func (e *UnsafeQueryError) Unwrap() error { return ErrUnsafeQuery }

// NewUnsafeQuery creates an unsafe query error carrying the rejection reason.
func NewUnsafeQuery(reason string) error {
	return &UnsafeQueryError{Reason: reason}
}
