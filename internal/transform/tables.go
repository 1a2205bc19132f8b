package transform

// FieldPath addresses a second level field of a record.
type FieldPath struct {
	Category string
	Field    string
}

func (p FieldPath) String() string {
	return p.Category + "." + p.Field
}

// Relocation moves a collection of entry objects out of its category and
// into a top level compound field of the HEAL block.
type Relocation struct {
	FieldPath
	Optional bool
}

// Tables holds the key sets that drive the field rules. Changing what is
// coerced, dropped, renamed or relocated is a change to these tables.
type Tables struct {
	// YesNoFields are emitted as Yes/No vocabulary from their string form.
	YesNoFields []string
	// DateFields keep YYYY-MM-DD calendar dates and blank anything else.
	DateFields []string
	// FlowingEmptyFields are dropped when their string value is empty.
	FlowingEmptyFields []string
	// FirstElementFields collapse a string array to its first element.
	FirstElementFields []string
	// SkippedFields are never emitted inside their category.
	SkippedFields []string
	// ExcludedCategories are not mirrored into the HEAL block.
	ExcludedCategories []string
	// Renames maps category names onto HEAL block field names.
	Renames map[string]string
	// Required lists fields whose absence aborts the conversion, in check order.
	Required []FieldPath
	// Relocations are appended to the HEAL block after the categories.
	Relocations []Relocation
}

// DefaultTables returns the tables for the current HEAL schema.
func DefaultTables() Tables {
	return Tables{
		YesNoFields: []string{
			"heal_funded_status",
			"study_collection_status",
			"produce_data",
			"produce_other",
		},
		DateFields: []string{
			"data_collection_start_date",
			"data_collection_finish_date",
			"data_release_start_date",
			"data_release_finish_date",
		},
		FlowingEmptyFields: []string{
			"study_primary_or_secondary",
			"study_observational_or_experimental",
			"data_release_status",
			"data_available",
			"data_collection_status",
			"data_restricted",
			"study_translational_focus",
		},
		FirstElementFields: []string{
			"treatment_mode",
			"treatment_application_level",
			"treatment_novelty",
		},
		SkippedFields:      []string{fieldDataRepositories},
		ExcludedCategories: []string{categoryContactsAndRegistrants},
		Renames: map[string]string{
			categoryCitation:            "heal_citation",
			"study_translational_focus": "study_translational_focus_group",
		},
		Required: []FieldPath{
			{Category: categoryCitation, Field: "heal_funded_status"},
			{Category: categoryContactsAndRegistrants, Field: fieldRegistrants},
			{Category: categoryContactsAndRegistrants, Field: fieldContacts},
			{Category: categoryCitation, Field: fieldInvestigators},
		},
		Relocations: []Relocation{
			{FieldPath: FieldPath{Category: categoryContactsAndRegistrants, Field: fieldRegistrants}},
			{FieldPath: FieldPath{Category: categoryMetadataLocation, Field: fieldDataRepositories}, Optional: true},
		},
	}
}

type stringSet map[string]struct{}

func newStringSet(values []string) stringSet {
	set := make(stringSet, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

func (s stringSet) has(value string) bool {
	_, ok := s[value]
	return ok
}

type compiledTables struct {
	yesNo        stringSet
	dates        stringSet
	flowingEmpty stringSet
	firstElement stringSet
	skipped      stringSet
	excluded     stringSet
	renames      map[string]string
	required     []FieldPath
	relocations  []Relocation
}

func compileTables(t Tables) compiledTables {
	renames := make(map[string]string, len(t.Renames))
	for from, to := range t.Renames {
		renames[from] = to
	}
	return compiledTables{
		yesNo:        newStringSet(t.YesNoFields),
		dates:        newStringSet(t.DateFields),
		flowingEmpty: newStringSet(t.FlowingEmptyFields),
		firstElement: newStringSet(t.FirstElementFields),
		skipped:      newStringSet(t.SkippedFields),
		excluded:     newStringSet(t.ExcludedCategories),
		renames:      renames,
		required:     append([]FieldPath(nil), t.Required...),
		relocations:  append([]Relocation(nil), t.Relocations...),
	}
}
