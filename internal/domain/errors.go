package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks caller contract violations.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrModelNotConfigured is returned when a requested model is absent from config.
	ErrModelNotConfigured = errors.New("model not configured")
	// ErrRecordNotFound is returned when a history record id does not exist.
	ErrRecordNotFound = errors.New("record not found")
)

// InvalidArgumentError reports a rejected caller input.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidArgument) match.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// NewInvalidArgument builds an InvalidArgumentError.
func NewInvalidArgument(field, reason string) error {
	return &InvalidArgumentError{Field: field, Reason: reason}
}

// MalformedResponseError reports model output that could not be parsed as JSON.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// EmptyGenerationItemError reports a generated item without content.
type EmptyGenerationItemError struct {
	Index int
}

func (e *EmptyGenerationItemError) Error() string {
	return fmt.Sprintf("generated item %d has empty content", e.Index)
}
