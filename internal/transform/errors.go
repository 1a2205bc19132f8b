package transform

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-heal-dataverse/internal/validation"
)

var (
	ErrValidation                  = errors.New("transform: record does not conform to schema")
	ErrMissingRequiredField        = errors.New("transform: required field missing")
	ErrUnsupportedIdentifierScheme = errors.New("transform: unsupported investigator identifier scheme")
	ErrMissingContactEmail         = errors.New("transform: contact email missing")
)

// ValidationError reports a record rejected by the schema validator.
type ValidationError struct {
	Issues []validation.ValidationIssue
	Cause  error
}

func (e *ValidationError) Error() string {
	if e == nil || e.Cause == nil {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation, e.Cause)
}

// Unwrap exposes both the sentinel and the validator error.
func (e *ValidationError) Unwrap() []error {
	if e == nil || e.Cause == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Cause}
}

// MissingRequiredFieldError names the dotted path of an absent required field.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	if e == nil {
		return ErrMissingRequiredField.Error()
	}
	return fmt.Sprintf("%s: %s", ErrMissingRequiredField, e.Field)
}

func (e *MissingRequiredFieldError) Unwrap() error {
	return ErrMissingRequiredField
}

// UnsupportedIdentifierSchemeError reports an investigator identifier that
// is not an ORCID.
type UnsupportedIdentifierSchemeError struct {
	Path   string
	Scheme string
}

func (e *UnsupportedIdentifierSchemeError) Error() string {
	if e == nil {
		return ErrUnsupportedIdentifierScheme.Error()
	}
	return fmt.Sprintf("%s: %s is %q, only %s is supported", ErrUnsupportedIdentifierScheme, e.Path, e.Scheme, IdentifierSchemeORCID)
}

func (e *UnsupportedIdentifierSchemeError) Unwrap() error {
	return ErrUnsupportedIdentifierScheme
}

// MissingContactEmailError points at the contact entry lacking an email.
type MissingContactEmailError struct {
	Path string
}

func (e *MissingContactEmailError) Error() string {
	if e == nil {
		return ErrMissingContactEmail.Error()
	}
	return fmt.Sprintf("%s: %s", ErrMissingContactEmail, e.Path)
}

func (e *MissingContactEmailError) Unwrap() error {
	return ErrMissingContactEmail
}
