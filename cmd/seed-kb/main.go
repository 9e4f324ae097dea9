package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/danielpatrickdp/mathpilot/internal/config"
	"github.com/danielpatrickdp/mathpilot/internal/knowledge"
	"github.com/danielpatrickdp/mathpilot/internal/llm"
)

// #region main
func main() {
	cfg := config.Load()

	client, err := llm.NewChatClient(llm.Config{
		APIKey:     cfg.LLMAPIKey,
		BaseURL:    cfg.LLMBaseURL,
		Model:      cfg.LLMModel,
		EmbedModel: cfg.EmbedModel,
	})
	if err != nil {
		log.Fatalf("failed to build model client: %v", err)
	}

	store, err := knowledge.NewQdrantStore(knowledge.QdrantConfig{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		Dims:       cfg.QdrantDims,
	}, client)
	if err != nil {
		log.Fatalf("failed to connect to qdrant: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := store.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure collection: %v", err)
	}

	docs := knowledge.SeedDocuments()
	if err := store.Add(ctx, docs); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	fmt.Printf("Seeded %d documents into %q.\n", len(docs), cfg.QdrantCollection)
}

// #endregion main
