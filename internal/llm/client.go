package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/inference/engine"
	"github.com/yungbote/interviewcoach-backend/internal/inference/router"
	"github.com/yungbote/interviewcoach-backend/internal/observability"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

const (
	defaultReplyMaxTokens    = 256
	defaultClassifyMaxTokens = 150
	defaultReplyTemperature  = 0.7
)

// Client is the single point through which the interview pipeline reaches a
// language model. Routing from purpose to model lives in the router.
type Client struct {
	router *router.Router
	log    *logger.Logger
	tracer trace.Tracer
}

func New(r *router.Router, log *logger.Logger) *Client {
	return &Client{
		router: r,
		log:    log.With("component", "LLMClient"),
		tracer: otel.Tracer("interviewcoach/llm"),
	}
}

// Complete generates the interviewer's next line from a system prompt and the
// conversation so far. The last history entry is normally the candidate's
// current utterance.
func (c *Client) Complete(ctx context.Context, system string, history []domain.HistoryEntry) (string, error) {
	route, ok := c.router.RouteFor(router.PurposeReply)
	if !ok {
		return "", errors.New("no reply model configured")
	}
	msgs := make([]engine.Message, 0, len(history)+1)
	msgs = append(msgs, engine.Message{Role: "system", Content: system})
	for _, h := range history {
		msgs = append(msgs, engine.Message{Role: roleFor(h.Speaker), Content: h.Text})
	}

	temp := route.Temperature
	if temp == 0 {
		temp = defaultReplyTemperature
	}
	maxTokens := route.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultReplyMaxTokens
	}
	return c.generate(ctx, "llm.complete", route, msgs, engine.GenerateOptions{Temperature: temp, MaxTokens: maxTokens})
}

// Classify sends a single-turn analysis prompt to the coaching model and
// returns the raw completion. Parsing is the caller's job.
func (c *Client) Classify(ctx context.Context, prompt string) (string, error) {
	route, ok := c.router.RouteFor(router.PurposeCoach)
	if !ok {
		return "", errors.New("no coach model configured")
	}
	maxTokens := route.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultClassifyMaxTokens
	}
	msgs := []engine.Message{{Role: "user", Content: prompt}}
	return c.generate(ctx, "llm.classify", route, msgs, engine.GenerateOptions{Temperature: route.Temperature, MaxTokens: maxTokens})
}

// ClassifyJSON is Classify with the completion constrained to schema. Engines
// without guided decoding fall back to prompting for the schema.
func (c *Client) ClassifyJSON(ctx context.Context, prompt, name string, schema map[string]any) (string, error) {
	route, ok := c.router.RouteFor(router.PurposeCoach)
	if !ok {
		return "", errors.New("no coach model configured")
	}
	maxTokens := route.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultClassifyMaxTokens
	}
	msgs := []engine.Message{{Role: "user", Content: prompt}}
	return c.generate(ctx, "llm.classify_json", route, msgs, engine.GenerateOptions{
		Temperature: route.Temperature,
		MaxTokens:   maxTokens,
		JSONSchema:  &engine.JSONSchema{Name: name, Schema: schema, Strict: true},
	})
}

// Embed returns one vector for text using the embedding model.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	route, ok := c.router.RouteFor(router.PurposeEmbed)
	if !ok {
		return nil, errors.New("no embed model configured")
	}
	ctx, span := c.tracer.Start(ctx, "llm.embed", trace.WithAttributes(attribute.String("llm.model", route.UpstreamModel)))
	defer span.End()

	vecs, err := route.Engine.Embed(ctx, route.UpstreamModel, []string{text})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed: expected 1 vector, got %d", len(vecs))
	}
	return vecs[0], nil
}

func (c *Client) generate(ctx context.Context, op string, route router.Route, msgs []engine.Message, opts engine.GenerateOptions) (string, error) {
	ctx, span := c.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("llm.model", route.UpstreamModel),
		attribute.Int("llm.messages", len(msgs)),
	))
	defer span.End()

	start := time.Now()
	out, err := route.Engine.GenerateText(ctx, route.UpstreamModel, msgs, opts)
	observability.Current().ObserveLLM(strings.TrimPrefix(op, "llm."), err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Warn("inference failed", "op", op, "model", route.PublicModel, "error", err)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	out = strings.TrimSpace(out)
	span.SetAttributes(attribute.Int("llm.output_chars", len(out)))
	return out, nil
}

func roleFor(s domain.Speaker) string {
	if s == domain.SpeakerInterviewer {
		return "assistant"
	}
	return "user"
}
