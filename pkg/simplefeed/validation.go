package simplefeed

import (
	"fmt"
	"strings"
)

// ValidateCreatePostRequest checks a draft before it is handed to the service.
// The repository trusts its input, so every boundary that accepts drafts calls this.
func ValidateCreatePostRequest(req CreatePostRequest) error {
	var fields []FieldError

	if strings.TrimSpace(req.Title) == "" {
		fields = append(fields, FieldError{Field: "title", Message: "Title is required"})
	}
	if strings.TrimSpace(req.Content) == "" {
		fields = append(fields, FieldError{Field: "content", Message: "Content is required"})
	}
	if !req.Type.IsValid() {
		fields = append(fields, FieldError{
			Field:   "type",
			Message: fmt.Sprintf("invalid type %q, expected one of %v", req.Type, PostTypes()),
		})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
