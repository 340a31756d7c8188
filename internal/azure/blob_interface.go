package azure

import (
	"context"
)

// BlobStorage defines the interface for state document storage
// This interface allows for easier testing with mock implementations
type BlobStorage interface {
	UploadDocument(ctx context.Context, key string, data []byte) error
	// DownloadDocument returns ErrBlobNotFound for a missing document
	DownloadDocument(ctx context.Context, key string) ([]byte, error)
	DeleteDocument(ctx context.Context, key string) error
}

// Ensure BlobStorageClient implements BlobStorage interface
var _ BlobStorage = (*BlobStorageClient)(nil)
