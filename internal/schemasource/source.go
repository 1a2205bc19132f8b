package schemasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/goliatone/go-heal-dataverse/internal/logging"
	"github.com/goliatone/go-heal-dataverse/pkg/interfaces"
)

// Source loads a schema document.
type Source interface {
	Load(ctx context.Context) (*Document, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Document, error)

// Load implements Source.
func (f SourceFunc) Load(ctx context.Context) (*Document, error) { return f(ctx) }

// Static serves an already loaded document.
func Static(doc *Document) Source {
	return SourceFunc(func(context.Context) (*Document, error) {
		if doc == nil {
			return nil, ErrSourceNotConfigured
		}
		return doc, nil
	})
}

// FileSource reads the schema from the local filesystem.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(ctx context.Context) (*Document, error) {
	if strings.TrimSpace(s.Path) == "" {
		return nil, ErrLocationRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("schemasource: read %s: %w", s.Path, err)
	}
	return Decode(payload, s.Path)
}

// HTTPSource fetches the schema with a GET request. Failures are returned
// as-is; retrying is left to the caller.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// Load implements Source.
func (s HTTPSource) Load(ctx context.Context) (*Document, error) {
	payload, err := s.Fetch(ctx, s.URL)
	if err != nil {
		return nil, err
	}
	return Decode(payload, s.URL)
}

// Fetch satisfies interfaces.SchemaFetcher.
func (s HTTPSource) Fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.TrimSpace(location) == "" {
		return nil, ErrLocationRequired
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("schemasource: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/schema+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schemasource: fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, location, resp.StatusCode)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("schemasource: read %s: %w", location, err)
	}
	return payload, nil
}

var _ interfaces.SchemaFetcher = HTTPSource{}

// FetcherSource loads the schema through a host supplied fetcher.
type FetcherSource struct {
	Location string
	Fetcher  interfaces.SchemaFetcher
}

// Load implements Source.
func (s FetcherSource) Load(ctx context.Context) (*Document, error) {
	if s.Fetcher == nil {
		return nil, ErrSourceNotConfigured
	}
	payload, err := s.Fetcher.Fetch(ctx, s.Location)
	if err != nil {
		return nil, err
	}
	return Decode(payload, s.Location)
}

// Open picks an HTTP source for http(s) locations and a file source
// otherwise.
func Open(location string, client *http.Client) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrLocationRequired
	}
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return HTTPSource{URL: location, Client: client}, nil
	}
	return FileSource{Path: strings.TrimPrefix(location, "file://")}, nil
}

// CachedSource keeps the first successfully loaded document for the life of
// the process. Failed loads are not remembered.
type CachedSource struct {
	source Source
	logger interfaces.Logger

	mu  sync.Mutex
	doc *Document
}

// Cached wraps source with a process wide cache.
func Cached(source Source, logger interfaces.Logger) *CachedSource {
	return &CachedSource{
		source: source,
		logger: logging.Ensure(logger),
	}
}

// Load implements Source. Concurrent callers wait for the in-flight load.
func (c *CachedSource) Load(ctx context.Context) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.doc != nil {
		return c.doc, nil
	}
	if c.source == nil {
		return nil, ErrSourceNotConfigured
	}
	doc, err := c.source.Load(ctx)
	if err != nil {
		c.logger.Warn("schema.load.failed", "error", err)
		return nil, err
	}
	c.doc = doc
	c.logger.Info("schema.load.completed", "origin", doc.Origin())
	return doc, nil
}
