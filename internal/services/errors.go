package services

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrProfileNotFound distinguishes a missing profile from validation
// failures. Callers (e.g. the login flow) branch into auto-provisioning on
// this instead of failing.
var ErrProfileNotFound = errors.New("profile not found")

// ErrDocumentNotFound indicates a document ID did not resolve.
var ErrDocumentNotFound = errors.New("document not found")

// ValidationError is a malformed-input failure, rejected before any store
// access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a validation failure for one field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PreconditionError is a business-rule failure: the request was well formed
// but the profile is not in a state that allows the operation. The profile
// is left unchanged.
type PreconditionError struct {
	Code    string
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

// dateRegex matches YYYY-MM-DD calendar strings.
var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseExamDate parses an optional YYYY-MM-DD exam date; empty means unset.
func ParseExamDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return parseDate("exam_date", value)
}

// parseDate validates a YYYY-MM-DD string by shape and parseability.
func parseDate(field, value string) (time.Time, error) {
	if !dateRegex.MatchString(value) {
		return time.Time{}, NewValidationError(field, fmt.Sprintf("invalid date format: %q (expected YYYY-MM-DD)", value))
	}

	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, NewValidationError(field, fmt.Sprintf("invalid date: %q", value))
	}

	return parsed, nil
}
