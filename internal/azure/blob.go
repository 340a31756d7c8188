package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"
)

// ErrBlobNotFound is returned when a requested document does not exist
var ErrBlobNotFound = errors.New("blob not found")

// statePrefix namespaces the state documents inside the container
const statePrefix = "state/"

// BlobStorageClient wraps Azure Blob Storage SDK for state document operations
type BlobStorageClient struct {
	client        *azblob.Client
	containerName string
	logger        *zap.Logger
}

// NewBlobStorageClient creates a new Azure Blob Storage client
func NewBlobStorageClient(accountName, accountKey, containerName string, logger *zap.Logger) (*BlobStorageClient, error) {
	if accountName == "" || accountKey == "" || containerName == "" {
		return nil, fmt.Errorf("accountName, accountKey, and containerName are required")
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared key credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &BlobStorageClient{
		client:        client,
		containerName: containerName,
		logger:        logger,
	}, nil
}

// BlobName maps a state key to its blob name
func BlobName(key string) string {
	return statePrefix + strings.TrimSpace(key) + ".json"
}

// UploadDocument uploads a JSON document, replacing any previous version
func (c *BlobStorageClient) UploadDocument(ctx context.Context, key string, data []byte) error {
	blobName := BlobName(key)
	blobClient := c.client.ServiceClient().NewContainerClient(c.containerName).NewBlockBlobClient(blobName)

	_, err := blobClient.UploadBuffer(ctx, data, &azblob.UploadBufferOptions{
		Metadata: map[string]*string{
			"contenttype": toPtr("application/json"),
		},
	})
	if err != nil {
		c.logger.Error("failed to upload document",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return fmt.Errorf("failed to upload document: %w", err)
	}

	c.logger.Debug("document uploaded",
		zap.String("blob_name", blobName),
		zap.Int("size_bytes", len(data)),
	)

	return nil
}

// DownloadDocument downloads a JSON document. It returns ErrBlobNotFound when
// the document does not exist.
func (c *BlobStorageClient) DownloadDocument(ctx context.Context, key string) ([]byte, error) {
	blobName := BlobName(key)
	blobClient := c.client.ServiceClient().NewContainerClient(c.containerName).NewBlockBlobClient(blobName)

	downloadResponse, err := blobClient.DownloadStream(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, ErrBlobNotFound
		}
		c.logger.Error("failed to download document",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to download document: %w", err)
	}
	defer downloadResponse.Body.Close()

	data, err := io.ReadAll(downloadResponse.Body)
	if err != nil {
		c.logger.Error("failed to read document data",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to read document data: %w", err)
	}

	return data, nil
}

// DeleteDocument deletes a JSON document. Deleting a missing document is not an error.
func (c *BlobStorageClient) DeleteDocument(ctx context.Context, key string) error {
	blobName := BlobName(key)

	_, err := c.client.DeleteBlob(ctx, c.containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil
		}
		c.logger.Error("failed to delete document",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}

// toPtr is a helper function to convert a string to a pointer
func toPtr(s string) *string {
	return &s
}
