package contact

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	spaceRe = regexp.MustCompile(`\s`)
)

// Kind selects the format rule applied to a field.
type Kind int

const (
	KindText Kind = iota
	KindEmail
	KindPhone
	KindPassword
)

// Field is one form input.
type Field struct {
	Name     string
	Value    string
	Kind     Kind
	Required bool
}

// FieldError describes why one field was rejected.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateField checks a single field. Values are trimmed first; empty
// optional fields always pass.
func ValidateField(f Field) error {
	value := strings.TrimSpace(f.Value)
	if value == "" {
		if f.Required {
			return &FieldError{Field: f.Name, Message: "This field is required"}
		}
		return nil
	}

	switch f.Kind {
	case KindEmail:
		if !IsValidEmail(value) {
			return &FieldError{Field: f.Name, Message: "Please enter a valid email address"}
		}
	case KindPhone:
		if !IsValidPhone(value) {
			return &FieldError{Field: f.Name, Message: "Please enter a valid phone number"}
		}
	case KindPassword:
		if utf8.RuneCountInString(value) < MinPasswordLength {
			return &FieldError{Field: f.Name, Message: fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength)}
		}
	}
	return nil
}

// ValidateFields checks every field and joins the failures.
func ValidateFields(fields []Field) error {
	var errs []error
	for _, f := range fields {
		if err := ValidateField(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FieldErrors unpacks the per-field failures from a validation error.
func FieldErrors(err error) []*FieldError {
	if err == nil {
		return nil
	}
	var out []*FieldError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, FieldErrors(e)...)
		}
		return out
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		out = append(out, fe)
	}
	return out
}

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// IsValidPhone reports whether s is an optionally +-prefixed number of up
// to 16 digits, ignoring whitespace.
func IsValidPhone(s string) bool {
	return phoneRe.MatchString(spaceRe.ReplaceAllString(s, ""))
}
