package service

import (
	"errors"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTitleLen is the maximum task title length in characters.
	MaxTitleLen = 200

	// MaxDescriptionLen is the maximum task description length in characters.
	MaxDescriptionLen = 1000
)

// ValidationError holds per-field messages for rejected task input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

// ValidateTaskInput checks title and description lengths.
// It returns nil or an *Error of kind KindValidation wrapping a *ValidationError.
func ValidateTaskInput(in TaskInput) error {
	fields := make(map[string]string)

	n := utf8.RuneCountInString(in.Title)
	switch {
	case strings.TrimSpace(in.Title) == "":
		fields["title"] = "Title is required"
	case n > MaxTitleLen:
		fields["title"] = "Title must be between 1 and 200 characters"
	}

	if in.Description != nil && utf8.RuneCountInString(*in.Description) > MaxDescriptionLen {
		fields["description"] = "Description must be less than 1000 characters"
	}

	if len(fields) == 0 {
		return nil
	}
	vErr := &ValidationError{Fields: fields}
	return &Error{Kind: KindValidation, Message: "invalid task", Err: vErr}
}

// FieldErrors extracts per-field messages from a validation error.
func FieldErrors(err error) map[string]string {
	var sErr *Error
	if !errors.As(err, &sErr) || sErr.Kind != KindValidation {
		return nil
	}
	var vErr *ValidationError
	if errors.As(sErr.Err, &vErr) {
		return vErr.Fields
	}
	return nil
}
