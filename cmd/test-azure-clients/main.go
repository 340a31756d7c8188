package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/azure"
	"github.com/vcscsvcscs/healthmate/internal/repository"
	"github.com/vcscsvcscs/healthmate/internal/service"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Get credentials from environment
	openaiEndpoint := os.Getenv("AZURE_OPENAI_ENDPOINT")
	openaiKey := os.Getenv("AZURE_OPENAI_KEY")
	openaiDeployment := os.Getenv("AZURE_OPENAI_DEPLOYMENT")

	storageAccountName := os.Getenv("AZURE_STORAGE_ACCOUNT_NAME")
	storageAccountKey := os.Getenv("AZURE_STORAGE_ACCOUNT_KEY")
	storageContainer := os.Getenv("AZURE_STORAGE_CONTAINER")
	if storageContainer == "" {
		storageContainer = "healthmate-state"
	}

	if openaiEndpoint == "" || openaiKey == "" || openaiDeployment == "" {
		logger.Fatal("Missing Azure OpenAI credentials. Set AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_KEY, and AZURE_OPENAI_DEPLOYMENT")
	}

	if storageAccountName == "" || storageAccountKey == "" {
		logger.Fatal("Missing Azure Storage credentials. Set AZURE_STORAGE_ACCOUNT_NAME and AZURE_STORAGE_ACCOUNT_KEY")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	failed := false

	logger.Info("=== Testing Azure OpenAI chat provider ===")
	if err := testChatProvider(ctx, openaiEndpoint, openaiKey, openaiDeployment, logger); err != nil {
		logger.Error("OpenAI chat test failed", zap.Error(err))
		failed = true
	} else {
		logger.Info("OpenAI chat test passed")
	}

	logger.Info("=== Testing Azure Blob state storage ===")
	if err := testBlobState(ctx, storageAccountName, storageAccountKey, storageContainer, logger); err != nil {
		logger.Error("Blob state test failed", zap.Error(err))
		failed = true
	} else {
		logger.Info("Blob state test passed")
	}

	if failed {
		os.Exit(1)
	}
	logger.Info("=== All tests completed ===")
}

func testChatProvider(ctx context.Context, endpoint, apiKey, deployment string, logger *zap.Logger) error {
	client, err := azure.NewOpenAIClient(endpoint, apiKey, deployment, logger)
	if err != nil {
		return fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	provider := service.NewOpenAIChatProvider(client)
	history := []model.ChatMessage{
		{ID: "greeting", Content: service.Greeting, Sender: model.SenderAI, Timestamp: time.Now()},
	}

	for _, agent := range service.Agents {
		reply, err := provider.Reply(ctx, service.ChatTurn{
			Message: "How much water should I drink each day?",
			Agent:   agent.ID,
			Style:   model.StyleConcise,
			History: history,
		})
		if err != nil {
			return fmt.Errorf("%s agent failed: %w", agent.ID, err)
		}
		if reply == "" {
			return fmt.Errorf("%s agent returned an empty reply", agent.ID)
		}

		logger.Info("Reply received",
			zap.String("agent", string(agent.ID)),
			zap.Int("response_length", len(reply)),
		)
	}

	return nil
}

func testBlobState(ctx context.Context, accountName, accountKey, container string, logger *zap.Logger) error {
	client, err := azure.NewBlobStorageClient(accountName, accountKey, container, logger)
	if err != nil {
		return fmt.Errorf("failed to create Blob Storage client: %w", err)
	}

	key := fmt.Sprintf("smoke-test-%d", time.Now().Unix())
	store := repository.NewStore(repository.NewBlobKV(client, logger), logger)

	want := model.DoseLedger{"smoke": 3}
	if err := store.Save(ctx, key, want); err != nil {
		return fmt.Errorf("state upload failed: %w", err)
	}

	var got model.DoseLedger
	if !store.Load(ctx, key, &got) {
		return fmt.Errorf("state document %s could not be read back", azure.BlobName(key))
	}
	if got["smoke"] != want["smoke"] {
		return fmt.Errorf("downloaded state doesn't match uploaded state")
	}

	if err := store.Remove(ctx, key); err != nil {
		return fmt.Errorf("state delete failed: %w", err)
	}
	if _, err := client.DownloadDocument(ctx, key); !errors.Is(err, azure.ErrBlobNotFound) {
		return fmt.Errorf("state document still present after delete: %v", err)
	}

	logger.Info("State document round trip verified", zap.String("blob_name", azure.BlobName(key)))
	return nil
}
