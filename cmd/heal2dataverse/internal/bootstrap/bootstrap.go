package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	healdv "github.com/goliatone/go-heal-dataverse"
	"github.com/goliatone/go-heal-dataverse/internal/logging"
	"github.com/goliatone/go-heal-dataverse/internal/util"
	"github.com/goliatone/go-heal-dataverse/pkg/interfaces"
)

// EnvPrefix namespaces the environment variables read by Settings.
const EnvPrefix = "HEALDV"

// Settings are read from HEALDV_* environment variables and an optional
// .env file; environment variables win over the file.
type Settings struct {
	Env         string `mapstructure:"ENV"`
	Host        string `mapstructure:"HOST"`
	Schema      string `mapstructure:"SCHEMA"`
	LogProvider string `mapstructure:"LOG_PROVIDER"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogFormat   string `mapstructure:"LOG_FORMAT"`
	Addr        string `mapstructure:"ADDR"`
}

var settingKeys = []string{"ENV", "HOST", "SCHEMA", "LOG_PROVIDER", "LOG_LEVEL", "LOG_FORMAT", "ADDR"}

// LoadSettings reads envFile when it exists, then overlays the environment.
func LoadSettings(envFile string) (Settings, error) {
	v := viper.New()
	if strings.TrimSpace(envFile) != "" {
		v.SetConfigFile(envFile)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("LOG_PROVIDER", "console")
	v.SetDefault("LOG_LEVEL", "warn")

	for _, key := range settingKeys {
		if err := v.BindEnv(key); err != nil {
			return Settings{}, fmt.Errorf("bind %s_%s: %w", EnvPrefix, key, err)
		}
	}

	if strings.TrimSpace(envFile) != "" {
		if err := v.ReadInConfig(); err != nil && !missingConfig(err) {
			return Settings{}, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	settings := Settings{}
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return settings, nil
}

// missingConfig reports whether err only says the env file is absent.
func missingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
}

// Options captures configuration for converter CLI bootstraps.
type Options struct {
	// Deployment names a deployment directly; it wins over Host.
	Deployment     string
	Host           string
	SchemaLocation string
	LogProvider    string
	LogLevel       string
	LogFormat      string
	LoggerProvider interfaces.LoggerProvider
}

// OptionsFromSettings maps loaded settings onto bootstrap options.
func OptionsFromSettings(settings Settings) Options {
	return Options{
		Deployment:     settings.Env,
		Host:           settings.Host,
		SchemaLocation: settings.Schema,
		LogProvider:    settings.LogProvider,
		LogLevel:       settings.LogLevel,
		LogFormat:      settings.LogFormat,
	}
}

// Module wraps the converter module and the converter selected by Options.
type Module struct {
	Module    *healdv.Module
	Converter *healdv.Converter
	Logger    interfaces.Logger
}

// BuildModule constructs a converter module for a single CLI invocation.
func BuildModule(opts Options) (*Module, error) {
	cfg := healdv.DefaultConfig()
	cfg.Logging.Enabled = true
	cfg.Logging.Provider = util.FirstNonEmpty(opts.LogProvider, cfg.Logging.Provider)
	cfg.Logging.Level = util.FirstNonEmpty(opts.LogLevel, cfg.Logging.Level)
	cfg.Logging.Format = util.FirstNonEmpty(opts.LogFormat, cfg.Logging.Format)

	deployment, err := selectDeployment(cfg, opts)
	if err != nil {
		return nil, err
	}
	if location := strings.TrimSpace(opts.SchemaLocation); location != "" {
		deployment.SchemaLocation = location
		cfg.Deployments[deployment.Name] = deployment
	}

	moduleOpts := []healdv.Option{}
	if opts.LoggerProvider != nil {
		moduleOpts = append(moduleOpts, healdv.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := healdv.New(cfg, moduleOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise converter module: %w", err)
	}
	converter, err := module.ConverterFor(deployment.Name)
	if err != nil {
		return nil, err
	}

	return &Module{
		Module:    module,
		Converter: converter,
		Logger:    logging.CLILogger(module.Container().LoggerProvider()),
	}, nil
}

func selectDeployment(cfg healdv.Config, opts Options) (healdv.Deployment, error) {
	if name := strings.TrimSpace(opts.Deployment); name != "" {
		return cfg.Deployment(name)
	}
	return cfg.SelectDeployment(opts.Host)
}
