package domain

import (
	"errors"
	"fmt"
)

// ErrTableNotFound reports a table reference with no matching corpus
// record. Non-fatal: the pipeline omits the reference and proceeds.
var ErrTableNotFound = errors.New("table not found in corpus")

// AnalysisError is a failure of the query-analysis stage.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("query analysis failed: %v", e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// RetrievalError is a failure of the context-retrieval stage, including a
// hard context-store outage during table resolution. Fatal for the query.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("context retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError is a failure of the response-generation stage.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("response generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ConfigurationError reports missing credentials or paths, detected at
// startup before any query runs.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
