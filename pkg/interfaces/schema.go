package interfaces

import "context"

// SchemaFetcher retrieves the raw bytes of a schema document. Hosts that
// serve the HEAL schema from somewhere other than a file or plain HTTP
// endpoint can implement it and hand it to the schema source layer.
type SchemaFetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}
