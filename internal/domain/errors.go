package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactLoad marks failures to load the model or preprocessor at startup.
	ErrArtifactLoad = errors.New("artifact load failed")
	// ErrValidation marks a submitted field that failed its constraint.
	ErrValidation = errors.New("invalid input")
	// ErrInference marks a failure inside the prediction capability.
	ErrInference = errors.New("inference failed")
)

// ArtifactLoadError is fatal: the process must not serve requests after it.
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load artifact: %v", e.Err)
	}
	return fmt.Sprintf("load artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrArtifactLoad) match any ArtifactLoadError.
func (e *ArtifactLoadError) Is(target error) bool { return target == ErrArtifactLoad }

// ValidationError identifies the offending field. No inference call is made
// for a request that produced one.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InferenceError wraps whatever the prediction capability reported.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

func (e *InferenceError) Is(target error) bool { return target == ErrInference }
