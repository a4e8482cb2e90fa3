package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/inference/engine"
	"github.com/yungbote/interviewcoach-backend/internal/inference/router"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

type recordingEngine struct {
	messages []engine.Message
	opts     engine.GenerateOptions
	reply    string
	err      error
}

func (e *recordingEngine) Embed(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	return [][]float32{{1, 2, 3}}, nil
}

func (e *recordingEngine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	e.messages = messages
	e.opts = opts
	return e.reply, e.err
}

func TestCompleteMapsSpeakersToRoles(t *testing.T) {
	eng := &recordingEngine{reply: "  Tell me more.  "}
	c := New(router.NewStatic("m", eng), logger.Nop())

	out, err := c.Complete(context.Background(), "system prompt", []domain.HistoryEntry{
		{Speaker: domain.SpeakerInterviewer, Text: "Hi Alex"},
		{Speaker: domain.SpeakerCandidate, Text: "Hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Tell me more.", out)
	require.Len(t, eng.messages, 3)
	assert.Equal(t, "system", eng.messages[0].Role)
	assert.Equal(t, "assistant", eng.messages[1].Role)
	assert.Equal(t, "user", eng.messages[2].Role)
	assert.Equal(t, defaultReplyMaxTokens, eng.opts.MaxTokens)
}

func TestClassifyWrapsEngineErrors(t *testing.T) {
	boom := errors.New("upstream down")
	c := New(router.NewStatic("m", &recordingEngine{err: boom}), logger.Nop())
	_, err := c.Classify(context.Background(), "Classify this")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestEmbed(t *testing.T) {
	c := New(router.NewStatic("m", &recordingEngine{}), logger.Nop())
	vec, err := c.Embed(context.Background(), "distributed systems")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestClassifyJSONPassesStrictSchema(t *testing.T) {
	eng := &recordingEngine{reply: `{"skip": true}`}
	c := New(router.NewStatic("m", eng), logger.Nop())

	schema := map[string]any{"type": "object"}
	out, err := c.ClassifyJSON(context.Background(), "You are a real-time interview coach", "coaching_insight", schema)
	require.NoError(t, err)
	assert.Equal(t, `{"skip": true}`, out)
	require.NotNil(t, eng.opts.JSONSchema)
	assert.Equal(t, "coaching_insight", eng.opts.JSONSchema.Name)
	assert.True(t, eng.opts.JSONSchema.Strict)
	assert.Equal(t, defaultClassifyMaxTokens, eng.opts.MaxTokens)
}
