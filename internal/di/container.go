package di

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-heal-dataverse/internal/logging"
	"github.com/goliatone/go-heal-dataverse/internal/logging/console"
	"github.com/goliatone/go-heal-dataverse/internal/logging/gologger"
	"github.com/goliatone/go-heal-dataverse/internal/logging/zerologger"
	"github.com/goliatone/go-heal-dataverse/internal/runtimeconfig"
	"github.com/goliatone/go-heal-dataverse/internal/schemasource"
	"github.com/goliatone/go-heal-dataverse/internal/transform"
	"github.com/goliatone/go-heal-dataverse/pkg/interfaces"
)

const defaultHTTPTimeout = 30 * time.Second

// Container wires the converter dependencies: logging, schema sources per
// deployment and the shared transformer.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	httpClient     *http.Client
	tables         *transform.Tables

	overrides map[string]schemasource.Source

	transformer *transform.Transformer

	mu      sync.Mutex
	sources map[string]schemasource.Source
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider derived from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithHTTPClient sets the client used for http(s) schema locations.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSchemaSource binds a source to the named deployment instead of its
// configured SchemaLocation.
func WithSchemaSource(deployment string, source schemasource.Source) Option {
	return func(c *Container) {
		name := strings.ToLower(strings.TrimSpace(deployment))
		if name == "" || source == nil {
			return
		}
		c.overrides[name] = source
	}
}

// WithTables replaces the transformer rule tables.
func WithTables(tables transform.Tables) Option {
	return func(c *Container) {
		copied := tables
		c.tables = &copied
	}
}

// NewContainer validates cfg and builds the dependency graph.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config:    cfg,
		overrides: map[string]schemasource.Source{},
		sources:   map[string]schemasource.Source{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	transformOpts := []transform.Option{
		transform.WithLogger(logging.TransformLogger(c.loggerProvider)),
	}
	if c.tables != nil {
		transformOpts = append(transformOpts, transform.WithTables(*c.tables))
	}
	c.transformer = transform.New(transformOpts...)

	logging.RootLogger(c.loggerProvider).Debug("container.configured",
		"default_deployment", cfg.DefaultDeployment,
		"deployments", len(cfg.Deployments),
		"cache_schema", cfg.CacheSchema,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil || !c.Config.Logging.Enabled {
		return nil
	}
	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return fmt.Errorf("configure go-logger provider: %w", err)
		}
		c.loggerProvider = provider
	case "zerolog":
		provider, err := zerologger.NewProvider(zerologger.Config{
			Level:  logCfg.Level,
			Format: logCfg.Format,
		})
		if err != nil {
			return fmt.Errorf("configure zerolog provider: %w", err)
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{}
		if level, ok := console.ParseLevel(logCfg.Level); ok {
			opts.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

// LoggerProvider returns the configured provider; nil means logging is off.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Transformer returns the shared metadata transformer.
func (c *Container) Transformer() *transform.Transformer {
	return c.transformer
}

// HTTPClient returns the client used for remote schema locations.
func (c *Container) HTTPClient() *http.Client {
	return c.httpClient
}

// SchemaSource returns the source bound to deployment. Sources are built
// once per deployment; when Config.CacheSchema is set they share a single
// successful load.
func (c *Container) SchemaSource(deployment runtimeconfig.Deployment) (schemasource.Source, error) {
	name := strings.ToLower(strings.TrimSpace(deployment.Name))

	c.mu.Lock()
	defer c.mu.Unlock()

	if source, ok := c.sources[name]; ok {
		return source, nil
	}

	source, ok := c.overrides[name]
	if !ok {
		opened, err := schemasource.Open(deployment.SchemaLocation, c.httpClient)
		if err != nil {
			return nil, fmt.Errorf("deployment %s: %w", name, err)
		}
		source = opened
	}
	if c.Config.CacheSchema {
		source = schemasource.Cached(source, logging.WithFields(logging.SchemaLogger(c.loggerProvider), map[string]any{
			"deployment": name,
		}))
	}
	c.sources[name] = source
	return source, nil
}
