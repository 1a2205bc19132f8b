package transform

import (
	"github.com/goliatone/go-heal-dataverse/internal/dataverse"
	"github.com/goliatone/go-heal-dataverse/internal/schema"
)

// fieldInput is a second level record value paired with its declared type.
type fieldInput struct {
	Category string
	Key      string
	Value    any
	Spec     schema.FieldSpec
}

// rule claims a field when match reports true. apply returns nil to drop
// the field from the output.
type rule struct {
	name  string
	match func(in fieldInput) bool
	apply func(in fieldInput) *dataverse.Field
}

// buildRules returns the cascade in precedence order; the first matching
// rule decides the field.
func buildRules(tables compiledTables) []rule {
	return []rule{
		{
			name:  "yes_no",
			match: func(in fieldInput) bool { return tables.yesNo.has(in.Key) },
			apply: func(in fieldInput) *dataverse.Field {
				return dataverse.NewVocabulary(in.Key, yesNo(scalarString(in.Value) == "true"))
			},
		},
		{
			name:  "date",
			match: func(in fieldInput) bool { return tables.dates.has(in.Key) },
			apply: func(in fieldInput) *dataverse.Field {
				if isCalendarDate(in.Value) {
					return dataverse.NewPrimitive(in.Key, in.Value.(string))
				}
				return dataverse.NewPrimitive(in.Key, "")
			},
		},
		{
			name:  "string",
			match: func(in fieldInput) bool { return in.Spec.Kind == schema.KindString },
			apply: func(in fieldInput) *dataverse.Field {
				value := scalarString(in.Value)
				if value == "" && tables.flowingEmpty.has(in.Key) {
					return nil
				}
				return &dataverse.Field{TypeName: in.Key, TypeClass: vocabularyClass(in.Spec, value), Value: value}
			},
		},
		{
			name: "numeric",
			match: func(in fieldInput) bool {
				return in.Spec.Kind == schema.KindInteger || in.Spec.Kind == schema.KindNumber
			},
			apply: func(in fieldInput) *dataverse.Field {
				return dataverse.NewPrimitive(in.Key, scalarString(in.Value))
			},
		},
		{
			name: "string_array",
			match: func(in fieldInput) bool {
				return in.Spec.Kind == schema.KindArray && in.Spec.ItemKind() == schema.KindString
			},
			apply: func(in fieldInput) *dataverse.Field {
				values := stringList(in.Value)
				if tables.firstElement.has(in.Key) {
					if len(values) == 0 || values[0] == "" {
						return nil
					}
					return &dataverse.Field{TypeName: in.Key, TypeClass: vocabularyClass(*in.Spec.Items, values[0]), Value: values[0]}
				}
				return dataverse.NewMultiple(in.Key, vocabularyClass(*in.Spec.Items, values...), values)
			},
		},
		{
			name:  "object",
			match: func(in fieldInput) bool { return in.Spec.Kind == schema.KindObject },
			apply: func(in fieldInput) *dataverse.Field { return structured(in.Key, in.Value) },
		},
		{
			name: "object_array",
			match: func(in fieldInput) bool {
				return in.Spec.Kind == schema.KindArray && in.Spec.ItemKind() == schema.KindObject
			},
			apply: func(in fieldInput) *dataverse.Field {
				if entries, ok := in.Value.([]any); ok && len(entries) == 0 {
					return dataverse.NewGroups(in.Key, nil)
				}
				return structured(in.Key, in.Value)
			},
		},
		{
			name: "scalar_array",
			match: func(in fieldInput) bool {
				return in.Spec.Kind == schema.KindArray
			},
			apply: func(in fieldInput) *dataverse.Field {
				return dataverse.NewMultiple(in.Key, dataverse.Primitive, stringList(in.Value))
			},
		},
		{
			name: "untyped",
			match: func(in fieldInput) bool {
				return in.Spec.Kind == schema.KindUnknown || in.Spec.Kind == schema.KindNull
			},
			apply: func(in fieldInput) *dataverse.Field { return structured(in.Key, in.Value) },
		},
	}
}

// vocabularyClass picks controlledVocabulary only when spec declares an
// enum and every value is one of its members.
func vocabularyClass(spec schema.FieldSpec, values ...string) dataverse.TypeClass {
	if !spec.HasEnum {
		return dataverse.Primitive
	}
	for _, value := range values {
		if !spec.AllowsValue(value) {
			return dataverse.Primitive
		}
	}
	return dataverse.ControlledVocabulary
}

// structured keeps a value of any shape: objects become a compound of
// primitive sub-fields, lists of objects a multiple compound and other lists
// a multiple primitive. Nested values are carried as their JSON text.
func structured(key string, value any) *dataverse.Field {
	switch typed := value.(type) {
	case map[string]any:
		return dataverse.NewGroup(key, primitiveGroup(typed))
	case []any:
		entries := objectList(typed)
		if len(typed) == 0 || len(entries) != len(typed) {
			return dataverse.NewMultiple(key, dataverse.Primitive, stringList(typed))
		}
		groups := make([]dataverse.Group, 0, len(entries))
		for _, entry := range entries {
			groups = append(groups, primitiveGroup(entry))
		}
		return dataverse.NewGroups(key, groups)
	default:
		return dataverse.NewPrimitive(key, scalarString(typed))
	}
}

func primitiveGroup(entry map[string]any) dataverse.Group {
	group := make(dataverse.Group, 0, len(entry))
	for _, key := range sortedKeys(entry) {
		group = append(group, dataverse.NewPrimitive(key, scalarString(entry[key])))
	}
	return group
}

// applyBoolean runs after the cascade for every boolean typed field and
// forces a Yes/No vocabulary value.
func applyBoolean(in fieldInput, field *dataverse.Field) *dataverse.Field {
	if in.Spec.Kind != schema.KindBoolean {
		return field
	}
	if field == nil {
		field = &dataverse.Field{TypeName: in.Key}
	}
	field.TypeClass = dataverse.ControlledVocabulary
	field.Multiple = false
	field.Value = yesNo(truthy(in.Value))
	return field
}
