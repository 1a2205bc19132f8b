package zerologger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-heal-dataverse/internal/logging"
	"github.com/goliatone/go-heal-dataverse/pkg/interfaces"
)

// Config captures the options exposed by the zerolog adapter.
type Config struct {
	Level  string
	Format string
	Writer io.Writer
}

// Provider hands out zerolog child loggers tagged with their name.
type Provider struct {
	root zerolog.Logger
}

// NewProvider builds a zerolog backed provider. An empty format selects JSON
// lines; "console" and "pretty" use zerolog's human readable writer. Output
// goes to stderr unless Writer is set.
func NewProvider(cfg Config) (*Provider, error) {
	out := cfg.Writer
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
	case "console", "pretty":
		out = zerolog.ConsoleWriter{Out: out, NoColor: true}
	default:
		return nil, fmt.Errorf("logging: unsupported zerolog format %q", cfg.Format)
	}

	level := zerolog.InfoLevel
	if raw := strings.TrimSpace(cfg.Level); raw != "" {
		if strings.EqualFold(raw, "warning") {
			raw = "warn"
		}
		parsed, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil {
			return nil, fmt.Errorf("logging: unsupported zerolog level %q", cfg.Level)
		}
		level = parsed
	}

	return &Provider{root: zerolog.New(out).Level(level).With().Timestamp().Logger()}, nil
}

// GetLogger satisfies interfaces.LoggerProvider.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil {
		return logging.NoOp()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return &adapter{inner: p.root}
	}
	return &adapter{inner: p.root.With().Str("logger", name).Logger()}
}

type adapter struct {
	inner zerolog.Logger
}

var (
	_ interfaces.Logger       = (*adapter)(nil)
	_ interfaces.FieldsLogger = (*adapter)(nil)
)

func (l *adapter) Trace(msg string, args ...any) { l.emit(zerolog.TraceLevel, msg, args) }
func (l *adapter) Debug(msg string, args ...any) { l.emit(zerolog.DebugLevel, msg, args) }
func (l *adapter) Info(msg string, args ...any)  { l.emit(zerolog.InfoLevel, msg, args) }
func (l *adapter) Warn(msg string, args ...any)  { l.emit(zerolog.WarnLevel, msg, args) }
func (l *adapter) Error(msg string, args ...any) { l.emit(zerolog.ErrorLevel, msg, args) }

// Fatal records at fatal level without exiting; the process decides.
func (l *adapter) Fatal(msg string, args ...any) { l.emit(zerolog.FatalLevel, msg, args) }

func (l *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	return &adapter{inner: l.inner.With().Fields(fields).Logger()}
}

// WithContext merges fields annotated through logging.ContextWithFields.
func (l *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return l
	}
	return l.WithFields(logging.ContextFields(ctx))
}

func (l *adapter) emit(level zerolog.Level, msg string, args []any) {
	event := l.inner.WithLevel(level)
	if event == nil {
		return
	}
	if len(args) > 0 {
		if len(args)%2 != 0 {
			args = append(args, "(MISSING)")
		}
		event = event.Fields(args)
	}
	event.Msg(msg)
}
