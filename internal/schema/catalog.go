// Package schema turns the HEAL JSON Schema into a typed lookup of the
// two-level record layout: category -> field -> declared kind and enum.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the JSON type declared for a field.
type Kind string

const (
	KindUnknown Kind = ""
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindNull    Kind = "null"
)

// FieldSpec describes a single schema property.
type FieldSpec struct {
	Kind    Kind
	HasEnum bool
	Enum    []string
	Items   *FieldSpec
}

// ItemKind returns the declared kind of array items.
func (f FieldSpec) ItemKind() Kind {
	if f.Items == nil {
		return KindUnknown
	}
	return f.Items.Kind
}

// AllowsValue reports whether value is one of the declared string enum
// values. Fields without an enum allow everything.
func (f FieldSpec) AllowsValue(value string) bool {
	if !f.HasEnum {
		return true
	}
	for _, candidate := range f.Enum {
		if candidate == value {
			return true
		}
	}
	return false
}

// Catalog indexes the second level properties of each top level category.
// It is immutable after Parse.
type Catalog struct {
	categories map[string]map[string]FieldSpec
}

// Parse walks properties[category].properties[field] of doc. Local $ref
// pointers are followed; categories that do not describe an object are
// recorded without fields.
func Parse(doc map[string]any) (*Catalog, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidSchema)
	}
	p := &parser{root: doc}

	root, err := p.resolve(doc)
	if err != nil {
		return nil, err
	}
	properties, err := p.properties(root)
	if err != nil {
		return nil, fmt.Errorf("%w: properties", err)
	}

	catalog := &Catalog{categories: make(map[string]map[string]FieldSpec, len(properties))}
	for category, raw := range properties {
		node, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: properties.%s is not an object", ErrInvalidSchema, category)
		}
		node, err = p.resolve(node)
		if err != nil {
			return nil, fmt.Errorf("properties.%s: %w", category, err)
		}
		fields, err := p.properties(node)
		if err != nil {
			return nil, fmt.Errorf("properties.%s: %w", category, err)
		}
		specs := make(map[string]FieldSpec, len(fields))
		for name, rawField := range fields {
			fieldNode, ok := rawField.(map[string]any)
			if !ok {
				continue
			}
			spec, err := p.fieldSpec(fieldNode, 0)
			if err != nil {
				return nil, fmt.Errorf("properties.%s.properties.%s: %w", category, name, err)
			}
			specs[name] = spec
		}
		catalog.categories[category] = specs
	}
	return catalog, nil
}

// Lookup returns the spec declared for category.field.
func (c *Catalog) Lookup(category, field string) (FieldSpec, bool) {
	if c == nil {
		return FieldSpec{}, false
	}
	fields, ok := c.categories[category]
	if !ok {
		return FieldSpec{}, false
	}
	spec, ok := fields[field]
	return spec, ok
}

// HasCategory reports whether the schema declares category.
func (c *Catalog) HasCategory(category string) bool {
	if c == nil {
		return false
	}
	_, ok := c.categories[category]
	return ok
}

// Categories lists declared categories in lexical order.
func (c *Catalog) Categories() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.categories))
	for name := range c.categories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Fields lists the fields declared for category in lexical order.
func (c *Catalog) Fields(category string) []string {
	if c == nil {
		return nil
	}
	fields := c.categories[category]
	out := make([]string, 0, len(fields))
	for name := range fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

const maxItemsDepth = 8

type parser struct {
	root map[string]any
}

func (p *parser) properties(node map[string]any) (map[string]any, error) {
	raw, ok := node["properties"]
	if !ok {
		return map[string]any{}, nil
	}
	props, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrInvalidSchema
	}
	return props, nil
}

// resolve follows $ref chains until a node without $ref is reached.
func (p *parser) resolve(node map[string]any) (map[string]any, error) {
	seen := map[string]bool{}
	current := node
	for {
		ref, ok := current["$ref"].(string)
		if !ok {
			return current, nil
		}
		if seen[ref] {
			return nil, fmt.Errorf("%w: %s", ErrRefCycle, ref)
		}
		seen[ref] = true
		if !strings.HasPrefix(ref, "#") {
			return nil, fmt.Errorf("%w: %s", ErrExternalRef, ref)
		}
		target, err := resolvePointer(p.root, strings.TrimPrefix(ref, "#"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrRefNotFound, ref)
		}
		next, ok := target.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not an object", ErrInvalidSchema, ref)
		}
		current = next
	}
}

func (p *parser) fieldSpec(node map[string]any, depth int) (FieldSpec, error) {
	node, err := p.resolve(node)
	if err != nil {
		return FieldSpec{}, err
	}
	spec := FieldSpec{Kind: readKind(node["type"])}
	if rawEnum, ok := node["enum"]; ok {
		spec.HasEnum = true
		spec.Enum = readStringList(rawEnum)
	}
	if spec.Kind == KindArray && depth < maxItemsDepth {
		if items, ok := node["items"].(map[string]any); ok {
			itemSpec, err := p.fieldSpec(items, depth+1)
			if err != nil {
				return FieldSpec{}, fmt.Errorf("items: %w", err)
			}
			spec.Items = &itemSpec
		}
	}
	return spec, nil
}

// readKind accepts "type": "string" and "type": ["string", "null"]; the
// first non-null entry of a list wins.
func readKind(raw any) Kind {
	switch typed := raw.(type) {
	case string:
		return normalizeKind(typed)
	case []any:
		for _, entry := range typed {
			name, ok := entry.(string)
			if !ok {
				continue
			}
			if kind := normalizeKind(name); kind != KindNull && kind != KindUnknown {
				return kind
			}
		}
	case []string:
		for _, name := range typed {
			if kind := normalizeKind(name); kind != KindNull && kind != KindUnknown {
				return kind
			}
		}
	}
	return KindUnknown
}

func normalizeKind(value string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindString:
		return KindString
	case KindInteger:
		return KindInteger
	case KindNumber:
		return KindNumber
	case KindBoolean:
		return KindBoolean
	case KindArray:
		return KindArray
	case KindObject:
		return KindObject
	case KindNull:
		return KindNull
	default:
		return KindUnknown
	}
}
