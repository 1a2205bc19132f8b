package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	healdv "github.com/goliatone/go-heal-dataverse"
	"github.com/goliatone/go-heal-dataverse/cmd/heal2dataverse/internal/bootstrap"
	healhttp "github.com/goliatone/go-heal-dataverse/internal/http"
	"github.com/goliatone/go-heal-dataverse/internal/logging"
)

var moduleBuilder = bootstrap.BuildModule

const stdStream = "-"

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	envFile     string
	deployment  string
	host        string
	schema      string
	logProvider string
	logLevel    string
	logFormat   string
}

func newRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "heal2dataverse",
		Short:         "Convert HEAL study metadata into Dataverse dataset documents",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetIn(in)
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", ".env", "Optional dotenv file with ENV, HOST, SCHEMA and LOG_* settings")
	pf.StringVar(&flags.deployment, "env", "", "Deployment name (overrides --host)")
	pf.StringVar(&flags.host, "host", "", "Request host used to pick the deployment")
	pf.StringVar(&flags.schema, "schema", "", "Schema location (file path or http(s) URL)")
	pf.StringVar(&flags.logProvider, "log-provider", "", "Logging provider: console or gologger")
	pf.StringVar(&flags.logLevel, "log-level", "", "Minimum log level")
	pf.StringVar(&flags.logFormat, "log-format", "", "go-logger output format: json, console or pretty")

	root.AddCommand(convertCmd(flags))
	root.AddCommand(validateCmd(flags))
	root.AddCommand(deploymentsCmd(flags))
	root.AddCommand(serveCmd(flags))
	return root
}

// resolveOptions layers explicitly set flags over the environment settings.
func resolveOptions(cmd *cobra.Command, flags *rootFlags) (bootstrap.Options, error) {
	settings, err := bootstrap.LoadSettings(flags.envFile)
	if err != nil {
		return bootstrap.Options{}, err
	}
	opts := bootstrap.OptionsFromSettings(settings)

	changed := cmd.Flags().Changed
	if changed("env") {
		opts.Deployment = flags.deployment
	}
	if changed("host") {
		opts.Host = flags.host
		if !changed("env") {
			opts.Deployment = ""
		}
	}
	if changed("schema") {
		opts.SchemaLocation = flags.schema
	}
	if changed("log-provider") {
		opts.LogProvider = flags.logProvider
	}
	if changed("log-level") {
		opts.LogLevel = flags.logLevel
	}
	if changed("log-format") {
		opts.LogFormat = flags.logFormat
	}
	return opts, nil
}

func buildModule(cmd *cobra.Command, flags *rootFlags) (*bootstrap.Module, error) {
	opts, err := resolveOptions(cmd, flags)
	if err != nil {
		return nil, err
	}
	module, err := moduleBuilder(opts)
	if err != nil {
		return nil, fmt.Errorf("bootstrap module: %w", err)
	}
	if module == nil || module.Converter == nil {
		return nil, fmt.Errorf("converter not configured")
	}
	return module, nil
}

func convertCmd(flags *rootFlags) *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a HEAL record into a Dataverse dataset version document",
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := buildModule(cmd, flags)
			if err != nil {
				return err
			}
			payload, err := readInput(cmd, input)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			encoded, err := module.Converter.ConvertJSON(ctx, payload)
			if err != nil {
				module.Logger.Error("cli.convert.failed", "code", healdv.ErrorCode(err), "error", err)
				return err
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, encoded, "", "  "); err != nil {
				return fmt.Errorf("indent output: %w", err)
			}
			pretty.WriteByte('\n')
			if err := writeOutput(cmd, output, pretty.Bytes()); err != nil {
				return err
			}
			module.Logger.Info("cli.convert.completed",
				"deployment", module.Converter.Deployment().Name,
				"output", output,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", stdStream, "HEAL record JSON file (- for stdin)")
	cmd.Flags().StringVar(&output, "output", stdStream, "Destination for the Dataverse JSON (- for stdout)")
	return cmd
}

func validateCmd(flags *rootFlags) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a HEAL record against the deployment schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := buildModule(cmd, flags)
			if err != nil {
				return err
			}
			payload, err := readInput(cmd, input)
			if err != nil {
				return err
			}
			record, err := healdv.DecodeRecord(payload)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			issues, err := module.Converter.Issues(ctx, record)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintln(out, "valid")
				return nil
			}
			for _, issue := range issues {
				location := issue.Location
				if location == "" {
					location = "/"
				}
				fmt.Fprintf(out, "%s: %s\n", location, issue.Message)
			}
			return fmt.Errorf("record has %d schema violation(s)", len(issues))
		},
	}
	cmd.Flags().StringVar(&input, "input", stdStream, "HEAL record JSON file (- for stdin)")
	return cmd
}

func deploymentsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "deployments",
		Short: "List configured deployments",
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := buildModule(cmd, flags)
			if err != nil {
				return err
			}
			selected := module.Converter.Deployment().Name

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tHOSTS\tSCHEMA\tSELECTED")
			for _, deployment := range module.Module.Deployments() {
				hosts := strings.Join(deployment.Hosts, ",")
				if hosts == "" {
					hosts = "*"
				}
				mark := ""
				if deployment.Name == selected {
					mark = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", deployment.Name, hosts, deployment.SchemaLocation, mark)
			}
			return w.Flush()
		},
	}
}

func serveCmd(flags *rootFlags) *cobra.Command {
	var addr, basePath, bodyLimit string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve conversions over HTTP, picking the deployment from the request host",
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := buildModule(cmd, flags)
			if err != nil {
				return err
			}
			settings, err := bootstrap.LoadSettings(flags.envFile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") && settings.Addr != "" {
				addr = settings.Addr
			}

			api := healhttp.NewAPI(module.Module,
				healhttp.WithLogger(logging.HTTPLogger(module.Module.Container().LoggerProvider())),
				healhttp.WithBasePath(basePath),
			)
			server := healhttp.NewServer(api, bodyLimit)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			module.Logger.Info("cli.serve.started", "addr", addr, "base_path", basePath)
			if err := healhttp.Serve(ctx, server, addr); err != nil {
				module.Logger.Error("cli.serve.failed", "error", err)
				return err
			}
			module.Logger.Info("cli.serve.stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address (HEALDV_ADDR)")
	cmd.Flags().StringVar(&basePath, "base-path", "/api", "Path prefix for the converter routes")
	cmd.Flags().StringVar(&bodyLimit, "body-limit", healhttp.DefaultBodyLimit, "Maximum request body size")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == stdStream {
		payload, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return payload, nil
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return payload, nil
}

func writeOutput(cmd *cobra.Command, path string, payload []byte) error {
	if path == "" || path == stdStream {
		_, err := cmd.OutOrStdout().Write(payload)
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
