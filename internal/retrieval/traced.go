package retrieval

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// traced wraps a Service with one span per call.
type traced struct {
	inner    Service
	provider string
	tracer   trace.Tracer
}

func withTracing(s Service, provider string) Service {
	return &traced{inner: s, provider: provider, tracer: otel.Tracer("interviewcoach/retrieval")}
}

func (t *traced) start(ctx context.Context, op, sessionID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("retrieval.provider", t.provider),
		attribute.String("session.id", sessionID),
	))
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *traced) Index(ctx context.Context, sessionID string, docs []Document) error {
	ctx, span := t.start(ctx, "retrieval.index", sessionID)
	span.SetAttributes(attribute.Int("retrieval.documents", len(docs)))
	err := t.inner.Index(ctx, sessionID, docs)
	end(span, err)
	return err
}

func (t *traced) Retrieve(ctx context.Context, query string, sessionID string) (string, error) {
	ctx, span := t.start(ctx, "retrieval.retrieve", sessionID)
	out, err := t.inner.Retrieve(ctx, query, sessionID)
	span.SetAttributes(attribute.Int("retrieval.context_chars", len(out)))
	end(span, err)
	return out, err
}

func (t *traced) Forget(ctx context.Context, sessionID string) error {
	ctx, span := t.start(ctx, "retrieval.forget", sessionID)
	err := t.inner.Forget(ctx, sessionID)
	end(span, err)
	return err
}
