package storage

import (
	"context"
	"io"

	"github.com/mandacaru/erp-api/internal/httperr"
)

// Uploader grava um objeto e devolve a URL pública.
type Uploader interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// Disabled é usado quando S3_BUCKET não está configurado.
type Disabled struct{}

func (Disabled) Put(context.Context, string, string, io.Reader, int64) (string, error) {
	return "", httperr.ErrBusiness("storage_disabled")
}
