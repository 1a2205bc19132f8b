// Package dataverse models the dataset version payload accepted by the
// Dataverse native API: metadata blocks holding typed field envelopes.
package dataverse

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TypeClass enumerates the field classes Dataverse accepts.
type TypeClass string

const (
	Primitive            TypeClass = "primitive"
	Compound             TypeClass = "compound"
	ControlledVocabulary TypeClass = "controlledVocabulary"
)

const (
	CitationBlockName        = "citation"
	CitationBlockDisplayName = "Citation Metadata"
	HealBlockName            = "heal"
	HealBlockDisplayName     = "HEAL metadata schema"
)

// Document is the top level dataset version envelope.
type Document struct {
	DatasetVersion DatasetVersion `json:"datasetVersion"`
}

// DatasetVersion holds the metadata blocks of a dataset version.
type DatasetVersion struct {
	MetadataBlocks MetadataBlocks `json:"metadataBlocks"`
}

// MetadataBlocks carries the two blocks produced for HEAL records.
type MetadataBlocks struct {
	Citation *Block `json:"citation"`
	Heal     *Block `json:"heal"`
}

// Block is a named, ordered list of fields.
type Block struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Fields      []*Field `json:"fields"`
}

// Field is the Dataverse field envelope. Value holds one of string, []string,
// Group or []Group.
type Field struct {
	TypeName  string    `json:"typeName"`
	TypeClass TypeClass `json:"typeClass"`
	Multiple  bool      `json:"multiple"`
	Value     any       `json:"value"`
}

// Group is the value of a compound field: sub-fields keyed by their type
// name. It encodes as a JSON object and keeps insertion order.
type Group []*Field

// NewDocument returns an empty document with both metadata blocks in place.
func NewDocument() *Document {
	return &Document{
		DatasetVersion: DatasetVersion{
			MetadataBlocks: MetadataBlocks{
				Citation: &Block{
					Name:        CitationBlockName,
					DisplayName: CitationBlockDisplayName,
					Fields:      []*Field{},
				},
				Heal: &Block{
					Name:        HealBlockName,
					DisplayName: HealBlockDisplayName,
					Fields:      []*Field{},
				},
			},
		},
	}
}

// Citation returns the citation block.
func (d *Document) Citation() *Block {
	return d.DatasetVersion.MetadataBlocks.Citation
}

// Heal returns the HEAL block.
func (d *Document) Heal() *Block {
	return d.DatasetVersion.MetadataBlocks.Heal
}

// Append adds fields to the end of the block.
func (b *Block) Append(fields ...*Field) {
	for _, field := range fields {
		if field != nil {
			b.Fields = append(b.Fields, field)
		}
	}
}

// Field returns the first field with the given type name.
func (b *Block) Field(typeName string) (*Field, bool) {
	if b == nil {
		return nil, false
	}
	for _, field := range b.Fields {
		if field.TypeName == typeName {
			return field, true
		}
	}
	return nil, false
}

// TypeNames lists the type names of the block fields in order.
func (b *Block) TypeNames() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.Fields))
	for _, field := range b.Fields {
		names = append(names, field.TypeName)
	}
	return names
}

// Field returns the sub-field with the given type name.
func (g Group) Field(typeName string) (*Field, bool) {
	for _, field := range g {
		if field.TypeName == typeName {
			return field, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the group as an object keyed by type name in
// insertion order.
func (g Group) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.TypeName)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(field)
		if err != nil {
			return nil, fmt.Errorf("dataverse: encode %s: %w", field.TypeName, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of sub-fields. Keys are read in document
// order so that encode/decode keeps the group stable.
func (g *Group) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("dataverse: compound value must be an object")
	}
	out := Group{}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return err
		}
		field := &Field{}
		if err := dec.Decode(field); err != nil {
			return err
		}
		out = append(out, field)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*g = out
	return nil
}

// UnmarshalJSON restores typed values based on typeClass and multiple.
func (f *Field) UnmarshalJSON(data []byte) error {
	var raw struct {
		TypeName  string          `json:"typeName"`
		TypeClass TypeClass       `json:"typeClass"`
		Multiple  bool            `json:"multiple"`
		Value     json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.TypeName = raw.TypeName
	f.TypeClass = raw.TypeClass
	f.Multiple = raw.Multiple

	switch {
	case raw.TypeClass == Compound && raw.Multiple:
		var groups []Group
		if err := json.Unmarshal(raw.Value, &groups); err != nil {
			return fmt.Errorf("dataverse: decode %s: %w", raw.TypeName, err)
		}
		f.Value = groups
	case raw.TypeClass == Compound:
		var group Group
		if err := json.Unmarshal(raw.Value, &group); err != nil {
			return fmt.Errorf("dataverse: decode %s: %w", raw.TypeName, err)
		}
		f.Value = group
	case raw.Multiple:
		var values []string
		if err := json.Unmarshal(raw.Value, &values); err != nil {
			return fmt.Errorf("dataverse: decode %s: %w", raw.TypeName, err)
		}
		f.Value = values
	default:
		var value string
		if err := json.Unmarshal(raw.Value, &value); err != nil {
			return fmt.Errorf("dataverse: decode %s: %w", raw.TypeName, err)
		}
		f.Value = value
	}
	return nil
}
