// Package transform converts a HEAL study record into a Dataverse dataset
// version document.
//
// Every second level field of the record is passed through an ordered rule
// table keyed on the field name and its schema declared type. Registrants
// and data repositories are lifted into top level compound fields of the
// HEAL block, and the citation block is assembled from the study name,
// investigators, contacts and description.
package transform

import (
	"context"
	"errors"

	"github.com/goliatone/go-heal-dataverse/internal/dataverse"
	"github.com/goliatone/go-heal-dataverse/internal/logging"
	"github.com/goliatone/go-heal-dataverse/internal/schema"
	"github.com/goliatone/go-heal-dataverse/internal/util"
	"github.com/goliatone/go-heal-dataverse/internal/validation"
	"github.com/goliatone/go-heal-dataverse/pkg/interfaces"
)

const (
	categoryCitation               = "citation"
	categoryContactsAndRegistrants = "contacts_and_registrants"
	categoryMetadataLocation       = "metadata_location"
	categoryMinimalInfo            = "minimal_info"
	categoryStudyType              = "study_type"

	fieldRegistrants      = "registrants"
	fieldContacts         = "contacts"
	fieldInvestigators    = "investigators"
	fieldDataRepositories = "data_repositories"
	fieldStudyStage       = "study_stage"
)

// ErrSchemaRequired is returned when Transform is called without a schema
// or with one that carries no catalog.
var ErrSchemaRequired = errors.New("transform: schema is required")

// Schema is the loaded schema the transformer works against.
type Schema interface {
	Catalog() *schema.Catalog
	Validate(payload any) error
}

// Transformer converts records. It holds no per-call state and is safe for
// concurrent use.
type Transformer struct {
	tables compiledTables
	rules  []rule
	logger interfaces.Logger
}

// Option customises a Transformer.
type Option func(*Transformer)

// WithTables replaces the default rule tables.
func WithTables(tables Tables) Option {
	return func(t *Transformer) {
		t.tables = compileTables(tables)
	}
}

// WithLogger sets the logger used for field level diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(t *Transformer) {
		t.logger = logging.Ensure(logger)
	}
}

// New constructs a Transformer with DefaultTables unless overridden.
func New(opts ...Option) *Transformer {
	t := &Transformer{
		tables: compileTables(DefaultTables()),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	t.rules = buildRules(t.tables)
	return t
}

// Transform converts source with a default Transformer.
func Transform(ctx context.Context, source map[string]any, s Schema) (*dataverse.Document, error) {
	return New().Transform(ctx, source, s)
}

// Preprocess returns a copy of source with known study_stage quirks fixed:
// an empty stage is removed and a single stage string becomes a one item
// list. source itself is left untouched.
func (t *Transformer) Preprocess(source map[string]any) map[string]any {
	record := util.CloneAnyMap(source)
	if record == nil {
		record = map[string]any{}
	}
	studyType, ok := record[categoryStudyType].(map[string]any)
	if !ok {
		return record
	}
	stage, ok := studyType[fieldStudyStage].(string)
	if !ok {
		return record
	}
	if stage == "" {
		delete(studyType, fieldStudyStage)
	} else {
		studyType[fieldStudyStage] = []any{stage}
	}
	return record
}

// Validate preprocesses source and checks it against the schema.
func (t *Transformer) Validate(ctx context.Context, source map[string]any, s Schema) error {
	if missingSchema(s) {
		return ErrSchemaRequired
	}
	_, err := t.validate(ctx, source, s)
	return err
}

func (t *Transformer) validate(ctx context.Context, source map[string]any, s Schema) (map[string]any, error) {
	record := t.Preprocess(source)
	if err := s.Validate(record); err != nil {
		verr := &ValidationError{Issues: validation.Issues(err), Cause: err}
		t.logger.WithContext(ctx).Warn("transform.validation.failed", "issues", len(verr.Issues))
		return nil, verr
	}
	return record, nil
}

// Transform validates source against s and builds the Dataverse document.
// No partial document is returned on error.
func (t *Transformer) Transform(ctx context.Context, source map[string]any, s Schema) (*dataverse.Document, error) {
	if missingSchema(s) {
		return nil, ErrSchemaRequired
	}
	logger := t.logger.WithContext(ctx)

	record, err := t.validate(ctx, source, s)
	if err != nil {
		return nil, err
	}
	if err := t.checkRequired(record); err != nil {
		return nil, err
	}

	doc := dataverse.NewDocument()
	heal := doc.Heal()
	heal.Append(t.categoryFields(logger, record, s.Catalog())...)
	for _, relocation := range t.tables.relocations {
		if field := t.relocate(logger, record, relocation); field != nil {
			heal.Append(field)
		}
	}

	citation, err := t.citationFields(record)
	if err != nil {
		return nil, err
	}
	doc.Citation().Append(citation...)

	logger.Debug("transform.completed",
		"heal_fields", len(heal.Fields),
		"citation_fields", len(doc.Citation().Fields),
	)
	return doc, nil
}

// missingSchema also catches a typed nil behind the interface, which
// reports no catalog.
func missingSchema(s Schema) bool {
	return s == nil || s.Catalog() == nil
}

func (t *Transformer) checkRequired(record map[string]any) error {
	for _, path := range t.tables.required {
		category, _ := record[path.Category].(map[string]any)
		if !present(category, path.Field) {
			return &MissingRequiredFieldError{Field: path.String()}
		}
	}
	return nil
}

// categoryFields mirrors every category except the excluded ones as a
// compound field, in lexical category order.
func (t *Transformer) categoryFields(logger interfaces.Logger, record map[string]any, catalog *schema.Catalog) []*dataverse.Field {
	fields := make([]*dataverse.Field, 0, len(record))
	for _, category := range sortedKeys(record) {
		if t.tables.excluded.has(category) {
			continue
		}
		values, ok := record[category].(map[string]any)
		if !ok {
			logger.Debug("transform.category.skipped", "category", category, "reason", "not an object")
			continue
		}

		group := dataverse.Group{}
		for _, key := range sortedKeys(values) {
			if t.tables.skipped.has(key) {
				continue
			}
			spec, ok := catalog.Lookup(category, key)
			if !ok {
				logger.Debug("transform.field.skipped", "path", category+"."+key, "reason", "not declared in schema")
				continue
			}
			field := t.convertField(logger, fieldInput{
				Category: category,
				Key:      key,
				Value:    values[key],
				Spec:     spec,
			})
			if field != nil {
				group = append(group, field)
			}
		}

		name := category
		if renamed, ok := t.tables.renames[category]; ok {
			name = renamed
		}
		fields = append(fields, dataverse.NewGroup(name, group))
	}
	return fields
}

func (t *Transformer) convertField(logger interfaces.Logger, in fieldInput) *dataverse.Field {
	var field *dataverse.Field
	claimed := ""
	for _, r := range t.rules {
		if !r.match(in) {
			continue
		}
		claimed = r.name
		field = r.apply(in)
		break
	}
	if claimed != "" && field == nil {
		logger.Debug("transform.field.dropped", "path", in.Category+"."+in.Key, "rule", claimed)
		return nil
	}

	return applyBoolean(in, field)
}

// relocate lifts a collection of entry objects into a multiple compound
// field; each entry key becomes a primitive sub-field.
func (t *Transformer) relocate(logger interfaces.Logger, record map[string]any, relocation Relocation) *dataverse.Field {
	category, _ := record[relocation.Category].(map[string]any)
	if !present(category, relocation.Field) {
		if !relocation.Optional {
			logger.Warn("transform.relocation.missing", "path", relocation.String())
		}
		return nil
	}

	entries := objectList(category[relocation.Field])
	groups := make([]dataverse.Group, 0, len(entries))
	for _, entry := range entries {
		groups = append(groups, primitiveGroup(entry))
	}
	return dataverse.NewGroups(relocation.Field, groups)
}
