// Package healdv converts HEAL study metadata records into Dataverse
// dataset version documents.
//
// A Module is built once from Config. Each request host maps to a
// deployment, and each deployment gets a Converter bound to its schema.
package healdv

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-heal-dataverse/internal/dataverse"
	"github.com/goliatone/go-heal-dataverse/internal/di"
	"github.com/goliatone/go-heal-dataverse/internal/logging"
	"github.com/goliatone/go-heal-dataverse/internal/schemasource"
	"github.com/goliatone/go-heal-dataverse/internal/transform"
	"github.com/goliatone/go-heal-dataverse/internal/validation"
	"github.com/goliatone/go-heal-dataverse/pkg/interfaces"
)

// Document exports the Dataverse dataset version document.
type Document = dataverse.Document

// Tables exports the transformer rule tables.
type Tables = transform.Tables

// SchemaSource exports the schema loading contract.
type SchemaSource = schemasource.Source

// SchemaDocument exports a loaded schema.
type SchemaDocument = schemasource.Document

// ValidationIssue exports a single schema violation.
type ValidationIssue = validation.ValidationIssue

// Option customises module wiring.
type Option = di.Option

// WithLoggerProvider routes module logs through provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return di.WithLoggerProvider(provider)
}

// WithHTTPClient sets the client used to fetch remote schemas.
func WithHTTPClient(client *http.Client) Option {
	return di.WithHTTPClient(client)
}

// WithSchemaSource binds source to the named deployment.
func WithSchemaSource(deployment string, source SchemaSource) Option {
	return di.WithSchemaSource(deployment, source)
}

// WithTables replaces the default transformer tables.
func WithTables(tables Tables) Option {
	return di.WithTables(tables)
}

// DefaultTables returns the rule tables used when WithTables is not set.
func DefaultTables() Tables {
	return transform.DefaultTables()
}

// Module represents the top level converter façade.
type Module struct {
	container *di.Container
	logger    interfaces.Logger

	mu         sync.Mutex
	converters map[string]*Converter
}

// New constructs a module using the provided configuration and options.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{
		container:  container,
		logger:     logging.RootLogger(container.LoggerProvider()),
		converters: map[string]*Converter{},
	}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Deployments lists the configured deployments in name order.
func (m *Module) Deployments() []Deployment {
	cfg := m.container.Config
	names := cfg.DeploymentNames()
	out := make([]Deployment, 0, len(names))
	for _, name := range names {
		if deployment, err := cfg.Deployment(name); err == nil {
			out = append(out, deployment)
		}
	}
	return out
}

// Converter returns the converter for the deployment serving host. An
// empty or unknown host selects the default deployment.
func (m *Module) Converter(host string) (*Converter, error) {
	deployment, err := m.container.Config.SelectDeployment(host)
	if err != nil {
		return nil, err
	}
	return m.converterFor(deployment)
}

// ConverterFor returns the converter of the named deployment.
func (m *Module) ConverterFor(name string) (*Converter, error) {
	deployment, err := m.container.Config.Deployment(name)
	if err != nil {
		return nil, err
	}
	return m.converterFor(deployment)
}

func (m *Module) converterFor(deployment Deployment) (*Converter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if converter, ok := m.converters[deployment.Name]; ok {
		return converter, nil
	}
	source, err := m.container.SchemaSource(deployment)
	if err != nil {
		return nil, err
	}
	converter := &Converter{
		deployment:  deployment,
		source:      source,
		transformer: m.container.Transformer(),
		logger:      m.logger,
	}
	m.converters[deployment.Name] = converter
	return converter, nil
}

// Converter turns records into Dataverse documents against one deployment's
// schema. It is safe for concurrent use.
type Converter struct {
	deployment  Deployment
	source      schemasource.Source
	transformer *transform.Transformer
	logger      interfaces.Logger
}

// Deployment returns the deployment the converter is bound to.
func (c *Converter) Deployment() Deployment {
	return c.deployment
}

// Schema loads the deployment schema.
func (c *Converter) Schema(ctx context.Context) (*SchemaDocument, error) {
	doc, err := c.source.Load(ctx)
	if err != nil {
		c.logger.WithContext(ctx).Error("converter.schema.failed",
			"deployment", c.deployment.Name,
			"location", c.deployment.SchemaLocation,
			"error", err,
		)
		return nil, wrapSchemaLoadError(err)
	}
	return doc, nil
}

// Convert validates record and builds the Dataverse document. record is
// not modified.
func (c *Converter) Convert(ctx context.Context, record map[string]any) (*Document, error) {
	doc, err := c.Schema(ctx)
	if err != nil {
		return nil, err
	}
	ctx, logger := c.begin(ctx, doc)

	out, err := c.transformer.Transform(ctx, record, doc)
	if err != nil {
		logger.Warn("converter.convert.failed", "code", ErrorCode(err), "error", err)
		return nil, wrapConvertError(err)
	}
	titleField, _ := out.Citation().Field("title")
	title, _ := titleField.Scalar()
	logger.Info("converter.convert.completed",
		"title", title,
		"heal_fields", len(out.Heal().Fields),
		"citation_fields", len(out.Citation().Fields),
	)
	return out, nil
}

// ConvertJSON decodes payload as a record, converts it and returns the
// encoded document.
func (c *Converter) ConvertJSON(ctx context.Context, payload []byte) ([]byte, error) {
	record, err := decodeRecord(payload)
	if err != nil {
		return nil, err
	}
	doc, err := c.Convert(ctx, record)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, wrapConvertError(err)
	}
	return encoded, nil
}

// Validate checks record against the schema without converting it.
func (c *Converter) Validate(ctx context.Context, record map[string]any) error {
	doc, err := c.Schema(ctx)
	if err != nil {
		return err
	}
	ctx, logger := c.begin(ctx, doc)
	if err := c.transformer.Validate(ctx, record, doc); err != nil {
		logger.Info("converter.validate.failed", "code", ErrorCode(err))
		return wrapConvertError(err)
	}
	return nil
}

// Issues runs schema validation and returns the individual violations. A
// conforming record yields no issues and a nil error.
func (c *Converter) Issues(ctx context.Context, record map[string]any) ([]ValidationIssue, error) {
	doc, err := c.Schema(ctx)
	if err != nil {
		return nil, err
	}
	err = c.transformer.Validate(ctx, record, doc)
	if err == nil {
		return nil, nil
	}
	var verr *transform.ValidationError
	if errors.As(err, &verr) {
		return verr.Issues, nil
	}
	return nil, wrapConvertError(err)
}

// DecodeRecord parses a JSON object payload into a record.
func DecodeRecord(payload []byte) (map[string]any, error) {
	return decodeRecord(payload)
}

// begin tags ctx with a fresh conversion id so transformer entries carry
// the same identifiers as the converter's own.
func (c *Converter) begin(ctx context.Context, doc *SchemaDocument) (context.Context, interfaces.Logger) {
	id := uuid.NewString()
	ctx = logging.ContextWithFields(ctx, logging.ConversionFields(id, c.deployment.Name, doc.Origin()))
	return ctx, logging.WithConversionContext(c.logger.WithContext(ctx), id, c.deployment.Name, doc.Origin())
}

func decodeRecord(payload []byte) (map[string]any, error) {
	var record map[string]any
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, wrapDecodeError(err)
	}
	if record == nil {
		return nil, wrapDecodeError(errRecordNull)
	}
	return record, nil
}
