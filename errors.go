package healdv

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-heal-dataverse/internal/transform"
)

// Text codes attached to errors returned by Converter.
const (
	CodeSchemaValidationFailed      = "HEAL_SCHEMA_VALIDATION_FAILED"
	CodeRequiredFieldMissing        = "HEAL_REQUIRED_FIELD_MISSING"
	CodeUnsupportedIdentifierScheme = "HEAL_UNSUPPORTED_IDENTIFIER_SCHEME"
	CodeContactEmailMissing         = "HEAL_CONTACT_EMAIL_MISSING"
	CodeRecordDecodeFailed          = "HEAL_RECORD_DECODE_FAILED"
	CodeSchemaLoadFailed            = "HEAL_SCHEMA_LOAD_FAILED"
	CodeConversionFailed            = "HEAL_CONVERSION_FAILED"
)

var errRecordNull = errors.New("record is null")

var (
	ErrValidation                  = transform.ErrValidation
	ErrMissingRequiredField        = transform.ErrMissingRequiredField
	ErrUnsupportedIdentifierScheme = transform.ErrUnsupportedIdentifierScheme
	ErrMissingContactEmail         = transform.ErrMissingContactEmail
)

type (
	ValidationError                  = transform.ValidationError
	MissingRequiredFieldError        = transform.MissingRequiredFieldError
	UnsupportedIdentifierSchemeError = transform.UnsupportedIdentifierSchemeError
	MissingContactEmailError         = transform.MissingContactEmailError
)

// ErrorCode maps a converter error onto its text code. Unknown errors map
// to CodeConversionFailed and nil maps to "".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, transform.ErrValidation):
		return CodeSchemaValidationFailed
	case errors.Is(err, transform.ErrMissingRequiredField):
		return CodeRequiredFieldMissing
	case errors.Is(err, transform.ErrUnsupportedIdentifierScheme):
		return CodeUnsupportedIdentifierScheme
	case errors.Is(err, transform.ErrMissingContactEmail):
		return CodeContactEmailMissing
	default:
		return CodeConversionFailed
	}
}

func wrapConvertError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	code := ErrorCode(err)
	switch code {
	case CodeSchemaValidationFailed:
		return goerrors.Wrap(err, goerrors.CategoryValidation, "record does not conform to the HEAL schema").
			WithTextCode(code)
	case CodeRequiredFieldMissing:
		return goerrors.Wrap(err, goerrors.CategoryValidation, "record is missing a required field").
			WithTextCode(code)
	case CodeUnsupportedIdentifierScheme:
		return goerrors.Wrap(err, goerrors.CategoryValidation, "investigator identifier scheme is not supported").
			WithTextCode(code)
	case CodeContactEmailMissing:
		return goerrors.Wrap(err, goerrors.CategoryValidation, "contact email is missing").
			WithTextCode(code)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "conversion failed").
			WithTextCode(code)
	}
}

func wrapDecodeError(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "record is not a JSON object").
		WithTextCode(CodeRecordDecodeFailed)
}

func wrapSchemaLoadError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "schema could not be loaded").
		WithTextCode(CodeSchemaLoadFailed)
}
