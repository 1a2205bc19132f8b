// Package schemasource loads the HEAL schema document and prepares it for
// the transformer: the raw JSON, its compiled validator and its field
// catalog are built once and shared read-only.
package schemasource

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-heal-dataverse/internal/schema"
	"github.com/goliatone/go-heal-dataverse/internal/validation"
)

var (
	ErrSchemaDecode        = errors.New("schemasource: schema is not a JSON object")
	ErrUnexpectedStatus    = errors.New("schemasource: unexpected HTTP status")
	ErrLocationRequired    = errors.New("schemasource: schema location is required")
	ErrSourceNotConfigured = errors.New("schemasource: no source configured")
	ErrDocumentMissing     = errors.New("schemasource: schema document is nil")
)

// Document is a loaded schema. It is immutable once constructed.
type Document struct {
	origin    string
	raw       map[string]any
	catalog   *schema.Catalog
	validator *validation.Validator
}

// NewDocument compiles raw and indexes its fields.
func NewDocument(raw map[string]any, origin string) (*Document, error) {
	validator, err := validation.Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", origin, err)
	}
	catalog, err := schema.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", origin, err)
	}
	return &Document{
		origin:    origin,
		raw:       raw,
		catalog:   catalog,
		validator: validator,
	}, nil
}

// Decode parses a JSON schema payload into a Document.
func Decode(payload []byte, origin string) (*Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaDecode, origin, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrSchemaDecode, origin)
	}
	return NewDocument(raw, origin)
}

// Origin reports where the document was loaded from.
func (d *Document) Origin() string {
	if d == nil {
		return ""
	}
	return d.origin
}

// Catalog returns the typed field lookup.
func (d *Document) Catalog() *schema.Catalog {
	if d == nil {
		return nil
	}
	return d.catalog
}

// Validate checks payload against the schema.
func (d *Document) Validate(payload any) error {
	if d == nil {
		return ErrDocumentMissing
	}
	return d.validator.Validate(payload)
}

// Raw returns the decoded schema. Callers must treat it as read-only.
func (d *Document) Raw() map[string]any {
	if d == nil {
		return nil
	}
	return d.raw
}
