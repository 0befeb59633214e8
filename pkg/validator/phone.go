package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidLength indicates phone number length is not 11 digits
	ErrInvalidLength = errors.New("phone number must be exactly 11 digits")

	// ErrInvalidPrefix indicates phone number doesn't start with a valid Korean mobile prefix
	ErrInvalidPrefix = errors.New("phone number must start with 010")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits")

	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")
)

// validPrefixes contains accepted Korean mobile prefixes. Legacy carrier
// prefixes still appear in imported admin rosters.
var validPrefixes = []string{
	"010",
	"011", // legacy SK
	"016", // legacy KTF
	"017", // legacy SK
	"019", // legacy LG
}

// phoneRegex matches digits only
var phoneRegex = regexp.MustCompile(`^\d+$`)

// PhoneValidator handles phone number normalization and validation.
// Every store key in the system is the sanitized 11-digit form.
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates a Korean mobile number.
// Accepts formats: 01012345678, 010-1234-5678, 010 1234 5678, +82 10-1234-5678
// Returns the sanitized phone number (digits only) and an error if invalid.
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.Sanitize(phone)

	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	if len(sanitized) != 11 {
		return "", ErrInvalidLength
	}

	if !v.IsValidPrefix(sanitized) {
		return "", ErrInvalidPrefix
	}

	return sanitized, nil
}

// Sanitize removes all non-digit separators and the country code from a
// phone number, leaving the domestic digits-only form.
func (v *PhoneValidator) Sanitize(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	phone = strings.ReplaceAll(phone, "(", "")
	phone = strings.ReplaceAll(phone, ")", "")
	phone = strings.ReplaceAll(phone, "+", "")
	phone = strings.ReplaceAll(phone, ".", "")

	// Replace country code 82 with the leading 0 (8210... -> 010...)
	if strings.HasPrefix(phone, "82") && len(phone) == 12 {
		phone = "0" + phone[2:]
	}

	return phone
}

// IsValidPrefix checks whether the number starts with a known mobile prefix.
func (v *PhoneValidator) IsValidPrefix(phone string) bool {
	if len(phone) < 3 {
		return false
	}

	prefix := phone[:3]
	for _, validPrefix := range validPrefixes {
		if prefix == validPrefix {
			return true
		}
	}

	return false
}

// Format formats a phone number in the standard display format: 010-XXXX-XXXX
func (v *PhoneValidator) Format(phone string) (string, error) {
	sanitized, err := v.Validate(phone)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%s",
		sanitized[0:3],
		sanitized[3:7],
		sanitized[7:11],
	), nil
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}

// MustValidate validates and panics if invalid (use for testing only)
func (v *PhoneValidator) MustValidate(phone string) string {
	sanitized, err := v.Validate(phone)
	if err != nil {
		panic(fmt.Sprintf("invalid phone number %s: %v", phone, err))
	}
	return sanitized
}
