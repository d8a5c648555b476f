package main

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRateLimited is returned once the retry budget for 429 responses is spent
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrNoFaceDetected means classification succeeded but found no face
	ErrNoFaceDetected = errors.New("no face detected in the image")
	// ErrNoValidResponse means the face-analysis API answered without a usable result
	ErrNoValidResponse = errors.New("no valid response from the face-analysis API")
	// ErrRunInProgress is returned when a session is asked to start a second run
	ErrRunInProgress = errors.New("a run is already in progress")
	// ErrInvalidScript is returned for scripts whose steps are out of order or incomplete
	ErrInvalidScript = errors.New("invalid pipeline script")
)

// ErrorKind classifies pipeline failures
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindRateLimited
	KindStructural
	KindNoFace
	KindClassification
	KindCapture
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network_failure"
	case KindRateLimited:
		return "rate_limited"
	case KindStructural:
		return "structural_validation"
	case KindNoFace:
		return "no_face_detected"
	case KindClassification:
		return "classification"
	case KindCapture:
		return "capture"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// PipelineError wraps a failure of one pipeline step
type PipelineError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown in the error display area
func (e *PipelineError) UserMessage() string {
	switch e.Kind {
	case KindNetwork, KindRateLimited:
		return "Error making API request: " + e.Err.Error()
	case KindStructural:
		return e.Err.Error()
	default:
		return e.Error()
	}
}

const structuralPrefix = "Issues with API response structure. Missing properties: "

// StructuralValidationError lists the expected response properties that were absent
type StructuralValidationError struct {
	Missing []string
}

func (e *StructuralValidationError) Error() string {
	return structuralPrefix + strings.Join(e.Missing, ", ")
}

// classify maps an arbitrary error to a PipelineError for op
func classify(op string, err error) *PipelineError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}

	var sve *StructuralValidationError
	switch {
	case errors.As(err, &sve):
		return &PipelineError{Kind: KindStructural, Op: op, Err: err}
	case errors.Is(err, ErrRateLimited):
		return &PipelineError{Kind: KindRateLimited, Op: op, Err: err}
	case errors.Is(err, ErrNoFaceDetected):
		return &PipelineError{Kind: KindNoFace, Op: op, Err: err}
	case errors.Is(err, ErrNoValidResponse):
		return &PipelineError{Kind: KindClassification, Op: op, Err: err}
	default:
		return &PipelineError{Kind: KindNetwork, Op: op, Err: err}
	}
}
