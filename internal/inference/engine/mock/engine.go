package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/interviewcoach-backend/internal/inference/engine"
)

// Engine answers deterministically without any network access. It recognizes
// the coaching prompts well enough to drive a full simulated session.
type Engine struct {
	EmbeddingDims int
}

func New() *Engine {
	return &Engine{EmbeddingDims: 8}
}

func (e *Engine) Embed(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, s := range inputs {
		h := sha256.Sum256([]byte(model + "\n" + s))
		vec := make([]float32, e.EmbeddingDims)
		for j := 0; j < e.EmbeddingDims; j++ {
			u := binary.LittleEndian.Uint32(h[(j*4)%len(h):])
			vec[j] = float32(u%10_000)/10_000.0 - 0.5
		}
		out[i] = vec
	}
	return out, nil
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var user string
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, "user") {
			user = messages[i].Content
			break
		}
	}
	lower := strings.ToLower(user)
	if opts.JSONSchema != nil {
		return structured(opts.JSONSchema.Name), nil
	}
	switch {
	case strings.HasPrefix(lower, "classify this interview question"):
		if strings.Contains(lower, "tell me about a time") {
			return "behavioral", nil
		}
		return "unknown", nil
	case strings.HasPrefix(lower, "analyze this interview response"):
		return `{"situation": true, "task": false, "action": false, "result": false}`, nil
	case strings.HasPrefix(lower, "you are a real-time interview coach"):
		return `{"type": "framework", "priority": "medium", "message": "Describe the specific task you owned next."}`, nil
	}
	if strings.TrimSpace(user) == "" {
		return "mock: ok", nil
	}
	return fmt.Sprintf("mock: %s", user), nil
}

// structured answers schema-constrained prompts with a fixed, valid object.
func structured(schema string) string {
	switch schema {
	case "star_progress":
		return `{"situation": true, "task": true, "action": false, "result": false}`
	case "coaching_insight":
		return `{"type": "framework", "priority": "medium", "message": "Describe the specific action you took next."}`
	}
	b, _ := json.Marshal(map[string]any{"ok": true, "schema": schema})
	return string(b)
}
