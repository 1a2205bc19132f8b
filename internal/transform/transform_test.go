package transform_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-heal-dataverse/internal/dataverse"
	"github.com/goliatone/go-heal-dataverse/internal/schemasource"
	"github.com/goliatone/go-heal-dataverse/internal/transform"
	"github.com/goliatone/go-heal-dataverse/pkg/testsupport"
)

func loadSchema(t *testing.T) *schemasource.Document {
	t.Helper()
	doc, err := schemasource.FileSource{Path: filepath.Join("testdata", "heal-schema.json")}.Load(context.Background())
	require.NoError(t, err)
	return doc
}

func loadRecord(t *testing.T) map[string]any {
	t.Helper()
	record, err := testsupport.LoadRecord(filepath.Join("testdata", "heal-record.json"))
	require.NoError(t, err)
	return record
}

func category(t *testing.T, record map[string]any, name string) map[string]any {
	t.Helper()
	values, ok := record[name].(map[string]any)
	require.Truef(t, ok, "category %s missing from record", name)
	return values
}

func healGroup(t *testing.T, doc *dataverse.Document, name string) dataverse.Group {
	t.Helper()
	field, ok := doc.Heal().Field(name)
	require.Truef(t, ok, "heal block has no %s field", name)
	assert.Equal(t, dataverse.Compound, field.TypeClass)
	assert.False(t, field.Multiple)
	group, ok := field.Group()
	require.True(t, ok)
	return group
}

func mustTransform(t *testing.T, record map[string]any) *dataverse.Document {
	t.Helper()
	doc, err := transform.New().Transform(context.Background(), record, loadSchema(t))
	require.NoError(t, err)
	return doc
}

func TestTransformMatchesGolden(t *testing.T) {
	doc := mustTransform(t, loadRecord(t))

	got, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	want, err := testsupport.LoadFixture(filepath.Join("testdata", "heal-record.dataverse.json"))
	require.NoError(t, err)

	if !assert.JSONEq(t, string(want), string(got)) {
		t.Logf("heal block fields:\n%s", spew.Sdump(doc.Heal().TypeNames()))
	}
}

func TestTransformBlockOrdering(t *testing.T) {
	doc := mustTransform(t, loadRecord(t))

	assert.Equal(t, []string{"title", "author", "datasetContact", "dsDescription", "subject"}, doc.Citation().TypeNames())
	assert.Equal(t, []string{
		"heal_citation",
		"data",
		"data_availability",
		"human_treatment_applicability",
		"metadata_location",
		"minimal_info",
		"study_translational_focus_group",
		"study_type",
		"registrants",
		"data_repositories",
	}, doc.Heal().TypeNames())
}

func TestTransformIsDeterministic(t *testing.T) {
	schema := loadSchema(t)
	transformer := transform.New()

	first, err := transformer.Transform(context.Background(), loadRecord(t), schema)
	require.NoError(t, err)
	second, err := transformer.Transform(context.Background(), loadRecord(t), schema)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestTransformLeavesSourceUntouched(t *testing.T) {
	record := loadRecord(t)
	mustTransform(t, record)

	assert.Equal(t, "Stage 1", category(t, record, "study_type")["study_stage"])
	_, hasRepos := category(t, record, "metadata_location")["data_repositories"]
	assert.True(t, hasRepos)
	entry := category(t, record, "contacts_and_registrants")["registrants"].([]any)[0].(map[string]any)
	assert.Equal(t, "Sam", entry["registrant_first_name"])
}

func TestPreprocessStudyStage(t *testing.T) {
	transformer := transform.New()

	t.Run("empty stage is removed", func(t *testing.T) {
		record := loadRecord(t)
		category(t, record, "study_type")["study_stage"] = ""

		out := transformer.Preprocess(record)
		_, ok := category(t, out, "study_type")["study_stage"]
		assert.False(t, ok)

		doc := mustTransform(t, record)
		_, ok = healGroup(t, doc, "study_type").Field("study_stage")
		assert.False(t, ok)
	})

	t.Run("single stage string equals one item list", func(t *testing.T) {
		asString := loadRecord(t)
		asList := loadRecord(t)
		category(t, asList, "study_type")["study_stage"] = []any{"Stage 1"}

		a, err := json.Marshal(mustTransform(t, asString))
		require.NoError(t, err)
		b, err := json.Marshal(mustTransform(t, asList))
		require.NoError(t, err)
		assert.Equal(t, string(b), string(a))
	})

	t.Run("records without study_type pass through", func(t *testing.T) {
		out := transformer.Preprocess(map[string]any{"minimal_info": map[string]any{}})
		assert.NotContains(t, out, "study_type")
		assert.NotNil(t, transformer.Preprocess(nil))
	})
}

func TestBooleanFieldsBecomeYesNo(t *testing.T) {
	cases := []struct {
		category string
		key      string
		value    bool
		want     string
	}{
		{"data_availability", "produce_data", true, "Yes"},
		{"data_availability", "produce_data", false, "No"},
		{"data_availability", "produce_other", true, "Yes"},
		{"citation", "heal_funded_status", false, "No"},
		{"citation", "heal_funded_status", true, "Yes"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			record := loadRecord(t)
			category(t, record, tc.category)[tc.key] = tc.value

			doc := mustTransform(t, record)
			name := tc.category
			if name == "citation" {
				name = "heal_citation"
			}
			field, ok := healGroup(t, doc, name).Field(tc.key)
			require.True(t, ok)
			assert.Equal(t, dataverse.ControlledVocabulary, field.TypeClass)
			assert.False(t, field.Multiple)
			assert.Equal(t, tc.want, field.Value)
		})
	}
}

func TestYesNoStringFields(t *testing.T) {
	for value, want := range map[string]string{"true": "Yes", "false": "No", "maybe": "No", "": "No"} {
		record := loadRecord(t)
		category(t, record, "citation")["study_collection_status"] = value

		field, ok := healGroup(t, mustTransform(t, record), "heal_citation").Field("study_collection_status")
		require.True(t, ok)
		assert.Equal(t, dataverse.ControlledVocabulary, field.TypeClass)
		assert.Equalf(t, want, field.Value, "value %q", value)
	}
}

func TestIntegerFieldsAreStringified(t *testing.T) {
	record := loadRecord(t)
	category(t, record, "data")["subject_data_unit_of_collection_expected_number"] = float64(1200)

	field, ok := healGroup(t, mustTransform(t, record), "data").Field("subject_data_unit_of_collection_expected_number")
	require.True(t, ok)
	assert.Equal(t, dataverse.Primitive, field.TypeClass)
	assert.Equal(t, "1200", field.Value)
}

func TestStructuredFieldsAreKept(t *testing.T) {
	doc := mustTransform(t, loadRecord(t))

	notes, ok := healGroup(t, doc, "data").Field("data_quality_notes")
	require.True(t, ok)
	assert.Equal(t, dataverse.Compound, notes.TypeClass)
	assert.False(t, notes.Multiple)
	group, ok := notes.Group()
	require.True(t, ok)
	note, ok := group.Field("note")
	require.True(t, ok)
	assert.Equal(t, dataverse.Primitive, note.TypeClass)
	assert.Equal(t, "n/a", note.Value)

	investigators, ok := healGroup(t, doc, "heal_citation").Field("investigators")
	require.True(t, ok)
	assert.Equal(t, dataverse.Compound, investigators.TypeClass)
	assert.True(t, investigators.Multiple)
	entries, ok := investigators.Groups()
	require.True(t, ok)
	require.Len(t, entries, 2)
	first, ok := entries[0].Field("investigator_first_name")
	require.True(t, ok)
	assert.Equal(t, "Jane", first.Value)
	ids, ok := entries[0].Field("investigator_ID")
	require.True(t, ok)
	assert.JSONEq(t, `[{"investigator_ID_type":"ORCID","investigator_ID_value":"0000-0002-1825-0097"}]`, ids.Value.(string))
}

func TestDateFields(t *testing.T) {
	cases := map[string]string{
		"2023-02-15":           "2023-02-15",
		"2023-02-30":           "",
		"2024-02-29":           "2024-02-29",
		"2023-2-15":            "",
		"15/02/2023":           "",
		"2023-02-15T10:00:00Z": "",
	}
	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			record := loadRecord(t)
			category(t, record, "data_availability")["data_release_start_date"] = input

			field, ok := healGroup(t, mustTransform(t, record), "data_availability").Field("data_release_start_date")
			require.True(t, ok)
			assert.Equal(t, dataverse.Primitive, field.TypeClass)
			assert.Equal(t, want, field.Value)
		})
	}
}

func TestFirstElementFields(t *testing.T) {
	t.Run("empty list is dropped", func(t *testing.T) {
		record := loadRecord(t)
		category(t, record, "human_treatment_applicability")["treatment_mode"] = []any{}

		_, ok := healGroup(t, mustTransform(t, record), "human_treatment_applicability").Field("treatment_mode")
		assert.False(t, ok)
	})

	t.Run("first element is kept as single value", func(t *testing.T) {
		record := loadRecord(t)
		category(t, record, "human_treatment_applicability")["treatment_mode"] = []any{"Surgical"}

		field, ok := healGroup(t, mustTransform(t, record), "human_treatment_applicability").Field("treatment_mode")
		require.True(t, ok)
		assert.False(t, field.Multiple)
		assert.Equal(t, "Surgical", field.Value)
		assert.Equal(t, dataverse.ControlledVocabulary, field.TypeClass)
	})
}

func TestStringArraysAreMultiple(t *testing.T) {
	doc := mustTransform(t, loadRecord(t))

	field, ok := healGroup(t, doc, "study_type").Field("study_subject_type")
	require.True(t, ok)
	assert.True(t, field.Multiple)
	assert.Equal(t, dataverse.Primitive, field.TypeClass)
	assert.Equal(t, []string{"Human"}, field.Value)

	field, ok = healGroup(t, doc, "study_type").Field("study_stage")
	require.True(t, ok)
	assert.True(t, field.Multiple)
	assert.Equal(t, dataverse.ControlledVocabulary, field.TypeClass)
}

func TestFlowingEmptyFieldsAreDropped(t *testing.T) {
	doc := mustTransform(t, loadRecord(t))

	availability := healGroup(t, doc, "data_availability")
	_, ok := availability.Field("data_release_status")
	assert.False(t, ok)
	_, ok = availability.Field("data_restricted")
	assert.False(t, ok)

	_, ok = healGroup(t, doc, "study_type").Field("study_observational_or_experimental")
	assert.False(t, ok)

	record := loadRecord(t)
	category(t, record, "metadata_location")["nih_application_id"] = ""
	field, ok := healGroup(t, mustTransform(t, record), "metadata_location").Field("nih_application_id")
	require.True(t, ok, "empty strings outside the flowing set are kept")
	assert.Equal(t, "", field.Value)
}

func TestUndeclaredFieldsAreSkipped(t *testing.T) {
	record := loadRecord(t)
	category(t, record, "minimal_info")["internal_note"] = "draft"
	record["form_state"] = map[string]any{"step": "3"}

	doc := mustTransform(t, record)

	_, ok := healGroup(t, doc, "minimal_info").Field("internal_note")
	assert.False(t, ok)
	assert.Empty(t, healGroup(t, doc, "form_state"))
}

func TestCategoriesAreRenamed(t *testing.T) {
	doc := mustTransform(t, loadRecord(t))

	names := doc.Heal().TypeNames()
	assert.Contains(t, names, "heal_citation")
	assert.Contains(t, names, "study_translational_focus_group")
	assert.NotContains(t, names, "citation")
	assert.NotContains(t, names, "study_translational_focus")
	assert.NotContains(t, names, "contacts_and_registrants")
}

func TestRelocatedCollections(t *testing.T) {
	doc := mustTransform(t, loadRecord(t))

	registrants, ok := doc.Heal().Field("registrants")
	require.True(t, ok)
	assert.True(t, registrants.Multiple)
	groups, ok := registrants.Groups()
	require.True(t, ok)
	require.Len(t, groups, 1)
	email, ok := groups[0].Field("registrant_email")
	require.True(t, ok)
	assert.Equal(t, dataverse.Primitive, email.TypeClass)
	assert.Equal(t, "sam.lee@example.org", email.Value)

	_, ok = healGroup(t, doc, "metadata_location").Field("data_repositories")
	assert.False(t, ok)

	record := loadRecord(t)
	delete(category(t, record, "metadata_location"), "data_repositories")
	_, ok = mustTransform(t, record).Heal().Field("data_repositories")
	assert.False(t, ok)
}

func TestRequiredFields(t *testing.T) {
	cases := []struct {
		category string
		field    string
	}{
		{"citation", "heal_funded_status"},
		{"contacts_and_registrants", "registrants"},
		{"contacts_and_registrants", "contacts"},
		{"citation", "investigators"},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			record := loadRecord(t)
			delete(category(t, record, tc.category), tc.field)

			doc, err := transform.New().Transform(context.Background(), record, loadSchema(t))
			assert.Nil(t, doc)
			require.ErrorIs(t, err, transform.ErrMissingRequiredField)

			var missing *transform.MissingRequiredFieldError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tc.category+"."+tc.field, missing.Field)
		})
	}
}

func TestInvestigators(t *testing.T) {
	t.Run("non ORCID scheme is rejected", func(t *testing.T) {
		record := loadRecord(t)
		investigators := category(t, record, "citation")["investigators"].([]any)
		ids := investigators[0].(map[string]any)["investigator_ID"].([]any)
		ids[0].(map[string]any)["investigator_ID_type"] = "ISNI"

		_, err := transform.New().Transform(context.Background(), record, loadSchema(t))
		require.ErrorIs(t, err, transform.ErrUnsupportedIdentifierScheme)

		var unsupported *transform.UnsupportedIdentifierSchemeError
		require.True(t, errors.As(err, &unsupported))
		assert.Equal(t, "ISNI", unsupported.Scheme)
		assert.Equal(t, "citation.investigators[0].investigator_ID[0].investigator_ID_type", unsupported.Path)
	})

	t.Run("empty identifier list defaults to blank ORCID", func(t *testing.T) {
		record := loadRecord(t)
		investigators := category(t, record, "citation")["investigators"].([]any)
		investigators[0].(map[string]any)["investigator_ID"] = []any{}

		field, ok := mustTransform(t, record).Citation().Field("author")
		require.True(t, ok)
		groups, _ := field.Groups()
		scheme, _ := groups[0].Field("authorIdentifierScheme")
		identifier, _ := groups[0].Field("authorIdentifier")
		assert.Equal(t, "ORCID", scheme.Value)
		assert.Equal(t, dataverse.ControlledVocabulary, scheme.TypeClass)
		assert.Equal(t, "", identifier.Value)
	})

	t.Run("missing names default to empty strings", func(t *testing.T) {
		field, ok := mustTransform(t, loadRecord(t)).Citation().Field("author")
		require.True(t, ok)
		groups, _ := field.Groups()
		require.Len(t, groups, 2)
		name, _ := groups[1].Field("authorName")
		affiliation, _ := groups[1].Field("authorAffiliation")
		assert.Equal(t, ", John", name.Value)
		assert.Equal(t, "", affiliation.Value)
	})
}

func TestContacts(t *testing.T) {
	t.Run("missing email fails", func(t *testing.T) {
		record := loadRecord(t)
		contacts := category(t, record, "contacts_and_registrants")["contacts"].([]any)
		delete(contacts[0].(map[string]any), "contact_email")

		_, err := transform.New().Transform(context.Background(), record, loadSchema(t))
		require.ErrorIs(t, err, transform.ErrMissingContactEmail)

		var missing *transform.MissingContactEmailError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "contacts_and_registrants.contacts[0].contact_email", missing.Path)
	})

	t.Run("missing names default to empty strings", func(t *testing.T) {
		record := loadRecord(t)
		category(t, record, "contacts_and_registrants")["contacts"] = []any{
			map[string]any{"contact_email": "team@example.org"},
		}

		field, ok := mustTransform(t, record).Citation().Field("datasetContact")
		require.True(t, ok)
		groups, _ := field.Groups()
		name, _ := groups[0].Field("datasetContactName")
		assert.Equal(t, ", ", name.Value)
	})
}

func TestValidationFailure(t *testing.T) {
	record := loadRecord(t)
	category(t, record, "minimal_info")["study_name"] = 12.0

	doc, err := transform.New().Transform(context.Background(), record, loadSchema(t))
	assert.Nil(t, doc)
	require.ErrorIs(t, err, transform.ErrValidation)

	var verr *transform.ValidationError
	require.True(t, errors.As(err, &verr))
	require.NotEmpty(t, verr.Issues)
	assert.Equal(t, "/minimal_info/study_name", verr.Issues[0].Location)

	assert.ErrorIs(t, transform.New().Validate(context.Background(), record, loadSchema(t)), transform.ErrValidation)
	assert.NoError(t, transform.New().Validate(context.Background(), loadRecord(t), loadSchema(t)))
}

func TestTransformRequiresSchema(t *testing.T) {
	_, err := transform.Transform(context.Background(), loadRecord(t), nil)
	assert.ErrorIs(t, err, transform.ErrSchemaRequired)

	var missing *schemasource.Document
	_, err = transform.Transform(context.Background(), loadRecord(t), missing)
	assert.ErrorIs(t, err, transform.ErrSchemaRequired)
	assert.ErrorIs(t, transform.New().Validate(context.Background(), loadRecord(t), missing), transform.ErrSchemaRequired)
}

func TestCustomTables(t *testing.T) {
	tables := transform.DefaultTables()
	tables.FlowingEmptyFields = append(tables.FlowingEmptyFields, "nih_application_id")
	tables.Renames["minimal_info"] = "heal_minimal_info"

	record := loadRecord(t)
	category(t, record, "metadata_location")["nih_application_id"] = ""

	doc, err := transform.New(transform.WithTables(tables)).Transform(context.Background(), record, loadSchema(t))
	require.NoError(t, err)

	_, ok := healGroup(t, doc, "metadata_location").Field("nih_application_id")
	assert.False(t, ok)
	assert.Contains(t, doc.Heal().TypeNames(), "heal_minimal_info")
	assert.NotContains(t, transform.DefaultTables().Renames, "minimal_info")
}
