package runtimeconfig

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrDefaultDeploymentRequired indicates the config does not name a fallback deployment.
var ErrDefaultDeploymentRequired = errors.New("healdv config: default deployment is required")

// ErrDeploymentUnknown indicates a deployment name with no matching entry.
var ErrDeploymentUnknown = errors.New("healdv config: deployment is not configured")

// ErrSchemaLocationRequired ensures every deployment knows where to load the schema from.
var ErrSchemaLocationRequired = errors.New("healdv config: schema location is required")
var ErrDeploymentHostInvalid = errors.New("healdv config: deployment host is invalid")
var ErrDeploymentHostConflict = errors.New("healdv config: host is claimed by more than one deployment")
var ErrDataverseURLInvalid = errors.New("healdv config: dataverse url is invalid")
var ErrLoggingProviderUnknown = errors.New("healdv config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("healdv config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("healdv config: logging format is invalid")

const (
	DeploymentDemo = "demo"
	DeploymentProd = "prod"

	// DefaultSchemaLocation is the schema bundled next to the converter.
	DefaultSchemaLocation = "./heal-schema-latest.json"
	// ProdHost is the public host served by the prod deployment.
	ProdHost = "heal-hdv.org"
)

// Config aggregates deployment bindings and ambient settings for the
// converter module.
type Config struct {
	DefaultDeployment string
	Deployments       map[string]Deployment
	Logging           LoggingConfig
	// CacheSchema keeps the first successfully loaded schema per deployment
	// for the lifetime of the module.
	CacheSchema bool
}

// Deployment binds a set of request hosts to a schema location.
type Deployment struct {
	Name           string
	Hosts          []string
	SchemaLocation string
	DataverseURL   string
}

// LoggingConfig captures provider-specific options for runtime logging.
// Logging stays silent unless Enabled is set or a provider is injected.
type LoggingConfig struct {
	Enabled   bool
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns the demo/prod pair served by the public site.
func DefaultConfig() Config {
	return Config{
		DefaultDeployment: DeploymentDemo,
		Deployments: map[string]Deployment{
			DeploymentDemo: {
				Name:           DeploymentDemo,
				SchemaLocation: DefaultSchemaLocation,
			},
			DeploymentProd: {
				Name:           DeploymentProd,
				Hosts:          []string{ProdHost},
				SchemaLocation: DefaultSchemaLocation,
			},
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		CacheSchema: true,
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	def := normalizeName(cfg.DefaultDeployment)
	if def == "" {
		return ErrDefaultDeploymentRequired
	}
	if _, ok := cfg.lookup(def); !ok {
		return fmt.Errorf("%w: %s", ErrDeploymentUnknown, def)
	}

	claimed := map[string]string{}
	for _, name := range cfg.DeploymentNames() {
		deployment, _ := cfg.lookup(name)
		if err := firstError(deployment.Validate()); err != nil {
			return fmt.Errorf("deployment %s: %w", name, err)
		}
		for _, host := range deployment.Hosts {
			host = normalizeHost(host)
			if owner, ok := claimed[host]; ok {
				return fmt.Errorf("%w: %s (%s, %s)", ErrDeploymentHostConflict, host, owner, name)
			}
			claimed[host] = name
		}
	}

	return firstError(cfg.Logging.Validate())
}

// Validate checks a single deployment entry.
func (d Deployment) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.SchemaLocation, validation.By(func(any) error {
			if strings.TrimSpace(d.SchemaLocation) == "" {
				return ErrSchemaLocationRequired
			}
			return nil
		})),
		validation.Field(&d.Hosts, validation.By(func(any) error {
			for _, host := range d.Hosts {
				if normalizeHost(host) == "" {
					return fmt.Errorf("%w: %q", ErrDeploymentHostInvalid, host)
				}
			}
			return nil
		})),
		validation.Field(&d.DataverseURL, validation.By(func(any) error {
			raw := strings.TrimSpace(d.DataverseURL)
			if raw == "" {
				return nil
			}
			parsed, err := url.Parse(raw)
			if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
				return fmt.Errorf("%w: %s", ErrDataverseURLInvalid, raw)
			}
			return nil
		})),
	)
}

// Validate checks logging provider, level and format.
func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Provider, validation.By(func(any) error {
			if provider := normalizeProvider(l.Provider); provider != "" && !isSupportedProvider(provider) {
				return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
			}
			return nil
		})),
		validation.Field(&l.Level, validation.By(func(any) error {
			if level := strings.TrimSpace(l.Level); level != "" && !isSupportedLevel(level) {
				return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
			}
			return nil
		})),
		validation.Field(&l.Format, validation.By(func(any) error {
			if format := strings.TrimSpace(l.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
			return nil
		})),
	)
}

// DeploymentNames lists configured deployments in lexical order.
func (cfg Config) DeploymentNames() []string {
	names := make([]string, 0, len(cfg.Deployments))
	for name := range cfg.Deployments {
		names = append(names, normalizeName(name))
	}
	sort.Strings(names)
	return names
}

// Deployment returns the named deployment with its Name populated.
func (cfg Config) Deployment(name string) (Deployment, error) {
	deployment, ok := cfg.lookup(normalizeName(name))
	if !ok {
		return Deployment{}, fmt.Errorf("%w: %s", ErrDeploymentUnknown, name)
	}
	return deployment, nil
}

// SelectDeployment maps a request host to the deployment claiming it. The
// port is ignored and hosts compare case-insensitively; unclaimed hosts
// fall back to the default deployment.
func (cfg Config) SelectDeployment(host string) (Deployment, error) {
	host = normalizeHost(host)
	if host != "" {
		for _, name := range cfg.DeploymentNames() {
			deployment, _ := cfg.lookup(name)
			for _, candidate := range deployment.Hosts {
				if normalizeHost(candidate) == host {
					return deployment, nil
				}
			}
		}
	}
	return cfg.Deployment(cfg.DefaultDeployment)
}

func (cfg Config) lookup(name string) (Deployment, bool) {
	for key, deployment := range cfg.Deployments {
		if normalizeName(key) != name {
			continue
		}
		if strings.TrimSpace(deployment.Name) == "" {
			deployment.Name = name
		}
		return deployment, true
	}
	return Deployment{}, false
}

// firstError unpacks ozzo field errors so sentinels stay reachable through
// errors.Is. Fields are visited in lexical order.
func firstError(err error) error {
	var fields validation.Errors
	if !errors.As(err, &fields) {
		return err
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if fields[key] != nil {
			return fields[key]
		}
	}
	return nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger", "zerolog":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
