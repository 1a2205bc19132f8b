package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-heal-dataverse/pkg/interfaces"
)

const (
	rootModule      = "healdv"
	transformModule = "healdv.transform"
	schemaModule    = "healdv.schema"
	cliModule       = "healdv.cli"
	httpModule      = "healdv.http"
)

const (
	fieldConversionID = "conversion_id"
	fieldDeployment   = "deployment"
	fieldSchemaOrigin = "schema_origin"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// RootLogger returns the logger namespace used by the converter facade.
func RootLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, rootModule)
}

// TransformLogger returns the logger namespace reserved for the metadata transformer.
func TransformLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, transformModule)
}

// SchemaLogger returns the logger namespace reserved for schema loading.
func SchemaLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, schemaModule)
}

// CLILogger returns the logger namespace used by command line tooling.
func CLILogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, cliModule)
}

// HTTPLogger returns the logger namespace used by the HTTP adapter.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// ConversionFields returns the structured fields identifying a single
// conversion call. Empty values are omitted.
func ConversionFields(conversionID, deployment, schemaOrigin string) map[string]any {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(conversionID); trimmed != "" {
		fields[fieldConversionID] = trimmed
	}
	if trimmed := strings.TrimSpace(deployment); trimmed != "" {
		fields[fieldDeployment] = trimmed
	}
	if trimmed := strings.TrimSpace(schemaOrigin); trimmed != "" {
		fields[fieldSchemaOrigin] = trimmed
	}
	return fields
}

// WithConversionContext enriches the logger with the identifiers of a single
// conversion call. Empty values are ignored.
func WithConversionContext(logger interfaces.Logger, conversionID, deployment, schemaOrigin string) interfaces.Logger {
	return WithFields(logger, ConversionFields(conversionID, deployment, schemaOrigin))
}

// Ensure returns logger, or a no-op logger when logger is nil.
func Ensure(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return NoOp()
	}
	return logger
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
