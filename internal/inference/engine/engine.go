package engine

import "context"

type Message struct {
	Role    string
	Content string
}

type JSONSchema struct {
	Name   string
	Schema map[string]any
	Strict bool
}

type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
	JSONSchema  *JSONSchema
}

// Engine is a text-generation and embedding backend. Implementations must be
// safe for concurrent use.
type Engine interface {
	Embed(ctx context.Context, model string, inputs []string) ([][]float32, error)
	GenerateText(ctx context.Context, model string, messages []Message, opts GenerateOptions) (string, error)
}
