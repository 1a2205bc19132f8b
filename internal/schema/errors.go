package schema

import "errors"

var (
	ErrInvalidSchema = errors.New("schema: invalid schema document")
	ErrRefNotFound   = errors.New("schema: $ref target not found")
	ErrRefCycle      = errors.New("schema: $ref cycle detected")
	ErrExternalRef   = errors.New("schema: external $ref not supported")
)
