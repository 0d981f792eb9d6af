package predictor

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failed prediction.
type ErrorCode string

const (
	ErrCodeArtifactLoadFailed ErrorCode = "ARTIFACT_LOAD_FAILED"
	ErrCodeSchemaMismatch     ErrorCode = "SCHEMA_MISMATCH"
	ErrCodeInferenceFailed    ErrorCode = "INFERENCE_FAILED"
)

// Sentinels for errors.Is checks against a *PredictionError.
var (
	ErrArtifactLoad   = &PredictionError{Code: ErrCodeArtifactLoadFailed}
	ErrSchemaMismatch = &PredictionError{Code: ErrCodeSchemaMismatch}
	ErrInference      = &PredictionError{Code: ErrCodeInferenceFailed}
)

// PredictionError is a coded failure raised by a Predictor.
type PredictionError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *PredictionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *PredictionError) Unwrap() error { return e.Err }

// Is matches any PredictionError with the same code.
func (e *PredictionError) Is(target error) bool {
	t, ok := target.(*PredictionError)
	return ok && t.Code == e.Code
}

func NewArtifactLoadError(msg string, err error) *PredictionError {
	return &PredictionError{Code: ErrCodeArtifactLoadFailed, Message: msg, Err: err}
}

func NewSchemaMismatchError(msg string, err error) *PredictionError {
	return &PredictionError{Code: ErrCodeSchemaMismatch, Message: msg, Err: err}
}

func NewInferenceError(msg string, err error) *PredictionError {
	return &PredictionError{Code: ErrCodeInferenceFailed, Message: msg, Err: err}
}

// CodeOf returns the code carried by err, or INFERENCE_FAILED for any error
// that is not a PredictionError.
func CodeOf(err error) ErrorCode {
	var pe *PredictionError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeInferenceFailed
}
