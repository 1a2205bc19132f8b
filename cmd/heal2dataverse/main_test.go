package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-heal-dataverse/cmd/heal2dataverse/internal/bootstrap"
)

var (
	schemaFixture = filepath.Join("..", "..", "testdata", "heal-schema.json")
	recordFixture = filepath.Join("..", "..", "testdata", "heal-record.json")
	goldenFixture = filepath.Join("..", "..", "testdata", "heal-record.dataverse.json")
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand(strings.NewReader(stdin), &out)
	root.SetErr(&bytes.Buffer{})
	base := []string{}
	if len(args) > 0 {
		base = append(base, args[0], "--env-file", filepath.Join(t.TempDir(), ".env"), "--log-level", "error")
		base = append(base, args[1:]...)
	}
	root.SetArgs(base)
	err := root.Execute()
	return out.String(), err
}

func TestConvertWritesIndentedDocument(t *testing.T) {
	target := filepath.Join(t.TempDir(), "dataverse.json")

	_, err := run(t, "", "convert", "--input", recordFixture, "--output", target, "--schema", schemaFixture)
	require.NoError(t, err)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	want, err := os.ReadFile(goldenFixture)
	require.NoError(t, err)

	assert.JSONEq(t, string(want), string(got))
	assert.True(t, strings.HasPrefix(string(got), "{\n  \"datasetVersion\""))
	assert.True(t, strings.HasSuffix(string(got), "}\n"))
}

func TestConvertReadsStdin(t *testing.T) {
	record, err := os.ReadFile(recordFixture)
	require.NoError(t, err)

	out, err := run(t, string(record), "convert", "--schema", schemaFixture, "--host", "heal-hdv.org")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "datasetVersion")
}

func TestConvertFailsOnMissingRequiredField(t *testing.T) {
	var record map[string]any
	raw, err := os.ReadFile(recordFixture)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &record))
	delete(record["citation"].(map[string]any), "investigators")
	payload, err := json.Marshal(record)
	require.NoError(t, err)

	out, err := run(t, string(payload), "convert", "--schema", schemaFixture)
	require.Error(t, err)
	assert.Empty(t, out)
}

func TestValidateReportsIssues(t *testing.T) {
	out, err := run(t, `{"minimal_info": {"study_name": 3}, "citation": {}, "contacts_and_registrants": {}}`,
		"validate", "--schema", schemaFixture)
	require.Error(t, err)
	assert.Contains(t, out, "/minimal_info/study_name")

	out, err = run(t, "", "validate", "--input", recordFixture, "--schema", schemaFixture)
	require.NoError(t, err)
	assert.Equal(t, "valid\n", out)
}

func TestDeploymentsListsConfiguredEntries(t *testing.T) {
	out, err := run(t, "", "deployments", "--host", "heal-hdv.org")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.True(t, strings.HasPrefix(lines[1], "demo"))
	assert.True(t, strings.HasPrefix(lines[2], "prod"))
	assert.Contains(t, lines[2], "heal-hdv.org")
	assert.True(t, strings.HasSuffix(lines[2], "yes"))
}

func TestFlagsOverrideSettings(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ENV=prod\nSCHEMA=/nowhere/schema.json\n"), 0o600))

	var captured bootstrap.Options
	previous := moduleBuilder
	moduleBuilder = func(opts bootstrap.Options) (*bootstrap.Module, error) {
		captured = opts
		return nil, errors.New("stop")
	}
	defer func() { moduleBuilder = previous }()

	root := newRootCommand(strings.NewReader(""), &bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"deployments", "--env-file", envFile, "--host", "localhost", "--schema", schemaFixture})
	require.Error(t, root.Execute())

	assert.Equal(t, "", captured.Deployment)
	assert.Equal(t, "localhost", captured.Host)
	assert.Equal(t, schemaFixture, captured.SchemaLocation)
	assert.Equal(t, "console", captured.LogProvider)
}

func TestServeStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := newRootCommand(strings.NewReader(""), &bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"serve",
		"--env-file", filepath.Join(t.TempDir(), ".env"),
		"--log-level", "error",
		"--addr", "127.0.0.1:0",
		"--schema", schemaFixture,
	})
	require.NoError(t, root.ExecuteContext(ctx))
}
