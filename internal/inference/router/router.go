package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/interviewcoach-backend/internal/config"
	"github.com/yungbote/interviewcoach-backend/internal/inference/engine"
	"github.com/yungbote/interviewcoach-backend/internal/inference/engine/mock"
	"github.com/yungbote/interviewcoach-backend/internal/inference/engine/oaihttp"
	"github.com/yungbote/interviewcoach-backend/internal/inference/engine/openai"
)

type Purpose string

const (
	PurposeReply Purpose = "reply"
	PurposeCoach Purpose = "coach"
	PurposeEmbed Purpose = "embed"
)

type Route struct {
	PublicModel   string
	UpstreamModel string
	Temperature   float64
	MaxTokens     int
	Engine        engine.Engine
}

type Router struct {
	routes   map[string]Route
	purposes map[Purpose]string
}

func New(cfg *config.Config) (*Router, error) {
	r := &Router{
		routes: map[string]Route{},
		purposes: map[Purpose]string{
			PurposeReply: cfg.Purposes.Reply,
			PurposeCoach: cfg.Purposes.Coach,
			PurposeEmbed: cfg.Purposes.Embed,
		},
	}
	for _, m := range cfg.Models {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return nil, fmt.Errorf("model id required")
		}
		if _, exists := r.routes[id]; exists {
			return nil, fmt.Errorf("duplicate model id: %s", id)
		}

		eng, err := newEngine(m.Engine)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", id, err)
		}

		upstream := strings.TrimSpace(m.UpstreamModel)
		if upstream == "" {
			upstream = id
		}
		r.routes[id] = Route{
			PublicModel:   id,
			UpstreamModel: upstream,
			Temperature:   m.Temperature,
			MaxTokens:     m.MaxTokens,
			Engine:        eng,
		}
	}
	for p, id := range r.purposes {
		if _, ok := r.routes[id]; !ok {
			return nil, fmt.Errorf("purpose %s references unknown model %q", p, id)
		}
	}
	return r, nil
}

// NewStatic builds a router over a single engine used for every purpose.
func NewStatic(model string, eng engine.Engine) *Router {
	return &Router{
		routes: map[string]Route{model: {PublicModel: model, UpstreamModel: model, Engine: eng}},
		purposes: map[Purpose]string{
			PurposeReply: model,
			PurposeCoach: model,
			PurposeEmbed: model,
		},
	}
}

func newEngine(cfg config.EngineConfig) (engine.Engine, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "mock":
		return mock.New(), nil
	case "openai_http", "oai_http":
		return oaihttp.New(cfg)
	case "openai":
		return openai.New(cfg)
	default:
		return nil, fmt.Errorf("unsupported engine type %q", cfg.Type)
	}
}

func (r *Router) ListModels() []string {
	out := make([]string, 0, len(r.routes))
	for id := range r.routes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Router) RouteForModel(model string) (Route, bool) {
	route, ok := r.routes[strings.TrimSpace(model)]
	return route, ok
}

func (r *Router) RouteFor(p Purpose) (Route, bool) {
	id, ok := r.purposes[p]
	if !ok {
		return Route{}, false
	}
	return r.RouteForModel(id)
}
