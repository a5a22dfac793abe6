package simplefeed

import (
	"errors"
	"fmt"
	"strings"
)

// Error types
var (
	// ErrPostNotFound indicates a post was not found
	ErrPostNotFound = errors.New("post not found")

	// ErrValidationFailed indicates a draft was rejected before reaching the repository
	ErrValidationFailed = errors.New("invalid post data")

	// ErrUnknownEvent indicates an event envelope with an unsupported kind
	ErrUnknownEvent = errors.New("unknown event kind")
)

// PostError represents an error related to post operations
type PostError struct {
	PostID int64
	Op     string
	Err    error
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post operation %s failed for post %d: %v", e.Op, e.PostID, e.Err)
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// FieldError describes one rejected field of a draft.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field error found in a draft.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%v: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
