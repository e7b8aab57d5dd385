package blob

import (
	"context"
	"io"
)

// Store is the upload collaborator for project images and resumes: write the
// bytes, get back a durable URL that goes into the record.
type Store interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}
