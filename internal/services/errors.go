package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrObjectNotFound is returned by ObjectStore.Get and Metadata for absent keys.
var ErrObjectNotFound = errors.New("object not found")

// ValidationError is a malformed input or a profile that violates the schema.
type ValidationError struct {
	Message string
	// Fields lists the offending field paths, when known.
	Fields []string
	Cause  error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s (fields: %s)", e.Message, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// ExtractionError means text could not be recovered from the document.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction error: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// UpstreamServiceError wraps a failed call to a generative backend.
type UpstreamServiceError struct {
	Provider   string
	StatusCode int
	Transient  bool
	Attempts   int
	Cause      error
}

func (e *UpstreamServiceError) Error() string {
	msg := fmt.Sprintf("upstream %s error", e.Provider)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *UpstreamServiceError) Unwrap() error {
	return e.Cause
}

// StorageError wraps a failed object store operation.
type StorageError struct {
	Op    string
	Key   string
	Cause error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("storage %s %q failed: %v", e.Op, e.Key, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Stage names the pipeline step a failure happened in.
type Stage string

const (
	StageDedupCheck     Stage = "dedup_check"
	StageExtractText    Stage = "extract"
	StageExtractProfile Stage = "extract_profile"
	StagePersistParsed  Stage = "persist_parsed"
	StagePersistRaw     Stage = "persist_raw"
)

// PipelineError is the Failed(stage, reason) terminal state of an ingestion.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("ingestion failed at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
