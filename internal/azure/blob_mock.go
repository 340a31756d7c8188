package azure

import (
	"bytes"
	"context"
	"sync"

	"go.uber.org/zap"
)

// MockBlobStorageClient is an in-memory implementation of BlobStorage for testing
type MockBlobStorageClient struct {
	Storage map[string][]byte
	mu      sync.RWMutex
	logger  *zap.Logger

	// FailWith, when set, is returned by every operation
	FailWith error
}

// NewMockBlobStorageClient creates a new mock blob storage client
func NewMockBlobStorageClient(logger *zap.Logger) *MockBlobStorageClient {
	return &MockBlobStorageClient{
		Storage: make(map[string][]byte),
		logger:  logger,
	}
}

// UploadDocument stores a document in memory
func (c *MockBlobStorageClient) UploadDocument(ctx context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailWith != nil {
		return c.FailWith
	}

	blobName := BlobName(key)
	c.Storage[blobName] = bytes.Clone(data)

	if c.logger != nil {
		c.logger.Debug("mock: document uploaded",
			zap.String("blob_name", blobName),
			zap.Int("size_bytes", len(data)),
		)
	}

	return nil
}

// DownloadDocument reads a document from memory
func (c *MockBlobStorageClient) DownloadDocument(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.FailWith != nil {
		return nil, c.FailWith
	}

	data, exists := c.Storage[BlobName(key)]
	if !exists {
		return nil, ErrBlobNotFound
	}

	return bytes.Clone(data), nil
}

// DeleteDocument removes a document from memory
func (c *MockBlobStorageClient) DeleteDocument(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailWith != nil {
		return c.FailWith
	}

	delete(c.Storage, BlobName(key))
	return nil
}

// Ensure MockBlobStorageClient implements BlobStorage interface
var _ BlobStorage = (*MockBlobStorageClient)(nil)
