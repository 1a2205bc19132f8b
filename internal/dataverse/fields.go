package dataverse

// NewPrimitive builds a single-valued primitive field.
func NewPrimitive(typeName, value string) *Field {
	return &Field{TypeName: typeName, TypeClass: Primitive, Value: value}
}

// NewVocabulary builds a single-valued controlled vocabulary field.
func NewVocabulary(typeName, value string) *Field {
	return &Field{TypeName: typeName, TypeClass: ControlledVocabulary, Value: value}
}

// NewMultiple builds a multi-valued primitive or controlled vocabulary field.
func NewMultiple(typeName string, class TypeClass, values []string) *Field {
	if values == nil {
		values = []string{}
	}
	return &Field{TypeName: typeName, TypeClass: class, Multiple: true, Value: values}
}

// NewGroup builds a single compound field.
func NewGroup(typeName string, group Group) *Field {
	if group == nil {
		group = Group{}
	}
	return &Field{TypeName: typeName, TypeClass: Compound, Value: group}
}

// NewGroups builds a multi-valued compound field.
func NewGroups(typeName string, groups []Group) *Field {
	if groups == nil {
		groups = []Group{}
	}
	return &Field{TypeName: typeName, TypeClass: Compound, Multiple: true, Value: groups}
}

// Scalar returns the value of a single-valued scalar field.
func (f *Field) Scalar() (string, bool) {
	if f == nil {
		return "", false
	}
	value, ok := f.Value.(string)
	return value, ok
}

// Group returns the value of a single compound field.
func (f *Field) Group() (Group, bool) {
	if f == nil {
		return nil, false
	}
	group, ok := f.Value.(Group)
	return group, ok
}

// Groups returns the values of a multi-valued compound field.
func (f *Field) Groups() ([]Group, bool) {
	if f == nil {
		return nil, false
	}
	groups, ok := f.Value.([]Group)
	return groups, ok
}
