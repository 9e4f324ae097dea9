package llm

// #region imports
import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// #endregion

// #region interfaces

// Client is the opaque language-model collaborator.
// Responses must be treated as possibly slow, malformed, or non-deterministic.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder produces a vector embedding for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// #endregion

// #region chat-client

// ChatClient talks to any OpenAI-compatible chat endpoint (OpenAI, Groq, local).
type ChatClient struct {
	client     *openai.Client
	model      string
	embedModel string
	system     string
}

// Config holds connection settings for a chat client.
type Config struct {
	APIKey     string
	BaseURL    string // empty = api.openai.com
	Model      string
	EmbedModel string
	System     string // system prompt prepended to every call, empty = none
}

// NewChatClient builds a client for the configured endpoint.
func NewChatClient(cfg Config) (*ChatClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: API key not set")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &ChatClient{
		client:     openai.NewClientWithConfig(oc),
		model:      cfg.Model,
		embedModel: cfg.EmbedModel,
		system:     cfg.System,
	}, nil
}

// #endregion

// #region generate

// Generate sends a single-turn prompt and returns the raw completion text.
func (c *ChatClient) Generate(ctx context.Context, prompt string) (string, error) {
	msgs := []openai.ChatCompletionMessage{}
	if c.system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: c.system,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// #endregion

// #region embed

// Embed returns an embedding vector for text using the configured embed model.
func (c *ChatClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embedModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embeddings: empty response")
	}
	return resp.Data[0].Embedding, nil
}

// #endregion
