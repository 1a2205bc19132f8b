package di_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-heal-dataverse/internal/di"
	"github.com/goliatone/go-heal-dataverse/internal/runtimeconfig"
	"github.com/goliatone/go-heal-dataverse/internal/schemasource"
	"github.com/goliatone/go-heal-dataverse/internal/transform"
)

const minimalSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "minimal_info": {
      "type": "object",
      "properties": {"study_name": {"type": "string"}}
    }
  }
}`

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.DefaultDeployment = "nowhere"

	if _, err := di.NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrDeploymentUnknown) {
		t.Fatalf("expected ErrDeploymentUnknown, got %v", err)
	}
}

func TestSchemaSourceOpensConfiguredLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heal-schema-latest.json")
	if err := os.WriteFile(path, []byte(minimalSchema), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	cfg := runtimeconfig.DefaultConfig()
	demo := cfg.Deployments[runtimeconfig.DeploymentDemo]
	demo.SchemaLocation = path
	cfg.Deployments[runtimeconfig.DeploymentDemo] = demo

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	deployment, _ := cfg.Deployment(runtimeconfig.DeploymentDemo)
	source, err := container.SchemaSource(deployment)
	if err != nil {
		t.Fatalf("SchemaSource returned error: %v", err)
	}
	again, err := container.SchemaSource(deployment)
	if err != nil {
		t.Fatalf("SchemaSource returned error: %v", err)
	}
	if source != again {
		t.Fatalf("expected memoised source per deployment")
	}

	doc, err := source.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if doc.Origin() != path {
		t.Fatalf("expected origin %s, got %s", path, doc.Origin())
	}
	if !doc.Catalog().HasCategory("minimal_info") {
		t.Fatalf("expected minimal_info category in catalog")
	}
}

func TestSchemaSourceOverrideIsCached(t *testing.T) {
	doc, err := schemasource.Decode([]byte(minimalSchema), "inline")
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	var loads int32
	override := schemasource.SourceFunc(func(context.Context) (*schemasource.Document, error) {
		atomic.AddInt32(&loads, 1)
		return doc, nil
	})

	container, err := di.NewContainer(runtimeconfig.DefaultConfig(), di.WithSchemaSource("PROD", override))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	deployment, _ := container.Config.Deployment(runtimeconfig.DeploymentProd)
	source, err := container.SchemaSource(deployment)
	if err != nil {
		t.Fatalf("SchemaSource returned error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := source.Load(context.Background()); err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
	}
	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Fatalf("expected a single underlying load, got %d", got)
	}
}

func TestSchemaSourceWithoutCacheLoadsEveryTime(t *testing.T) {
	var loads int32
	override := schemasource.SourceFunc(func(context.Context) (*schemasource.Document, error) {
		atomic.AddInt32(&loads, 1)
		return schemasource.Decode([]byte(minimalSchema), "inline")
	})

	cfg := runtimeconfig.DefaultConfig()
	cfg.CacheSchema = false
	container, err := di.NewContainer(cfg, di.WithSchemaSource(runtimeconfig.DeploymentDemo, override))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	deployment, _ := cfg.Deployment(runtimeconfig.DeploymentDemo)
	source, _ := container.SchemaSource(deployment)
	source.Load(context.Background())
	source.Load(context.Background())
	if got := atomic.LoadInt32(&loads); got != 2 {
		t.Fatalf("expected two loads without caching, got %d", got)
	}
}

func TestWithTablesReachesTransformer(t *testing.T) {
	tables := transform.DefaultTables()
	tables.Required = nil

	container, err := di.NewContainer(runtimeconfig.DefaultConfig(), di.WithTables(tables))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if container.Transformer() == nil {
		t.Fatalf("expected transformer")
	}
	if container.HTTPClient() == nil {
		t.Fatalf("expected default http client")
	}
}
