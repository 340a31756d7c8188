package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/azure"
)

// BlobKV stores each key as a JSON document in Azure Blob Storage
type BlobKV struct {
	storage azure.BlobStorage
	logger  *zap.Logger
}

// NewBlobKV creates a new BlobKV
func NewBlobKV(storage azure.BlobStorage, logger *zap.Logger) *BlobKV {
	return &BlobKV{
		storage: storage,
		logger:  logger,
	}
}

// Get downloads the document stored under key
func (b *BlobKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := b.storage.DownloadDocument(ctx, key)
	if err != nil {
		if errors.Is(err, azure.ErrBlobNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return data, true, nil
}

// Put uploads value as the document stored under key
func (b *BlobKV) Put(ctx context.Context, key string, value []byte) error {
	if err := b.storage.UploadDocument(ctx, key, value); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Delete removes the document stored under key
func (b *BlobKV) Delete(ctx context.Context, key string) error {
	if err := b.storage.DeleteDocument(ctx, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
