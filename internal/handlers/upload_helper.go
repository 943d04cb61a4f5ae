package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mandacaru/erp-api/internal/infra/storage"
	"github.com/mandacaru/erp-api/internal/models"
)

type fileUploader struct {
	uploader storage.Uploader
	maxBytes int64
}

// upload normaliza o arquivo e grava em "<pasta>/<id>/<uuid>.<ext>".
// O anexo devolvido ainda não foi persistido.
func (u fileUploader) upload(
	ctx context.Context,
	fh *multipart.FileHeader,
	folder string,
	entityID uint,
) (*models.Attachment, error) {

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := storage.ReadLimited(f, u.maxBytes)
	if err != nil {
		return nil, err
	}

	prepared, err := storage.Prepare(raw, u.maxBytes)
	if err != nil {
		return nil, err
	}

	key := storage.ObjectKey(folder, entityID, uuid.NewString(), prepared.Ext)
	url, err := u.uploader.Put(ctx, key, prepared.ContentType, bytes.NewReader(prepared.Data), int64(len(prepared.Data)))
	if err != nil {
		return nil, err
	}

	return &models.Attachment{
		EntityID:    entityID,
		FileName:    filepath.Base(fh.Filename),
		ContentType: prepared.ContentType,
		Size:        int64(len(prepared.Data)),
		Key:         key,
		URL:         url,
	}, nil
}
