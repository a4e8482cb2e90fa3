package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/interviewcoach-backend/internal/config"
	"github.com/yungbote/interviewcoach-backend/internal/inference/engine"
)

// Engine adapts the go-openai SDK client to engine.Engine.
type Engine struct {
	client *goopenai.Client
}

func New(cfg config.EngineConfig) (*Engine, error) {
	return NewWithHTTPClient(cfg, nil)
}

// NewWithHTTPClient lets tests substitute the transport.
func NewWithHTTPClient(cfg config.EngineConfig, httpClient *http.Client) (*Engine, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai: api_key required")
	}
	cc := goopenai.DefaultConfig(apiKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		cc.BaseURL = base
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout.Duration}
	}
	cc.HTTPClient = httpClient
	return &Engine{client: goopenai.NewClientWithConfig(cc)}, nil
}

// The SDK version in use models embedding names as an enum, so only the
// names it knows can be sent.
var embeddingModels = map[string]goopenai.EmbeddingModel{
	"text-embedding-ada-002":      goopenai.AdaEmbeddingV2,
	"text-similarity-ada-001":     goopenai.AdaSimilarity,
	"text-similarity-babbage-001": goopenai.BabbageSimilarity,
	"text-search-ada-doc-001":     goopenai.AdaSearchDocument,
	"text-search-ada-query-001":   goopenai.AdaSearchQuery,
}

func (e *Engine) Embed(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	em, ok := embeddingModels[strings.TrimSpace(model)]
	if !ok {
		return nil, fmt.Errorf("openai: embedding model %q not supported by this engine, use an oai_http engine", model)
	}
	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: inputs,
		Model: em,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	out := make([][]float32, len(inputs))
	for i, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) {
			idx = i
		}
		if idx < len(out) {
			out[idx] = d.Embedding
		}
	}
	for i := range out {
		if len(out[i]) == 0 {
			return nil, fmt.Errorf("embeddings missing index=%d (model=%s)", i, model)
		}
	}
	return out, nil
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model:       model,
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	}
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		req.Messages = append(req.Messages, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	if len(req.Messages) == 0 {
		return "", errors.New("no messages")
	}
	if opts.JSONSchema != nil {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	for _, c := range resp.Choices {
		if strings.TrimSpace(c.Message.Content) != "" {
			return c.Message.Content, nil
		}
	}
	return "", errors.New("empty upstream completion")
}
