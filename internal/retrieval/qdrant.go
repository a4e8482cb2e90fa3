package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/interviewcoach-backend/internal/config"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

const (
	payloadSessionKey = "session_id"
	payloadSourceKey  = "source"
	payloadTextKey    = "text"
	payloadIndexKey   = "chunk_index"
	maxErrorBodyBytes = 1024
)

var pointIDNamespaceUUID = uuid.MustParse("6b2f1d4e-9a7c-4d5e-8f10-3c2b1a0e9d87")

// Embedder turns text into a vector of the collection's dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

type qdrantSearchResultItem struct {
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Qdrant stores session document chunks in one collection, scoped by a
// session_id payload field.
type Qdrant struct {
	log      *logger.Logger
	cfg      config.RetrievalConfig
	baseURL  string
	embedder Embedder
	http     *http.Client
	tracer   trace.Tracer
}

func NewQdrant(log *logger.Logger, cfg config.RetrievalConfig, embedder Embedder, httpClient *http.Client) (*Qdrant, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	parsed, err := url.Parse(strings.TrimSpace(cfg.QdrantURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid qdrant url %q; expected absolute URL like http://qdrant:6333", cfg.QdrantURL)
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return nil, fmt.Errorf("qdrant collection required")
	}
	if httpClient == nil {
		timeout := cfg.Timeout.Duration
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Qdrant{
		log:      log.With("service", "QdrantRetriever"),
		cfg:      cfg,
		baseURL:  strings.TrimRight(cfg.QdrantURL, "/"),
		embedder: embedder,
		http:     httpClient,
		tracer:   otel.Tracer("interviewcoach/retrieval"),
	}, nil
}

// VerifyReady checks the server and the collection's vector size.
func (q *Qdrant) VerifyReady(ctx context.Context) error {
	const op = "bootstrap_verify"
	var result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	if err := q.doJSON(ctx, op, http.MethodGet, q.collectionPath(""), nil, &result); err != nil {
		return err
	}
	size := result.Config.Params.Vectors.Size
	if size != 0 && q.cfg.VectorDim > 0 && size != q.cfg.VectorDim {
		return opErr(op, OperationErrorValidation,
			fmt.Sprintf("collection %q vector size mismatch: expected=%d actual=%d", q.cfg.Collection, q.cfg.VectorDim, size), nil)
	}
	q.log.Info("Qdrant retriever selected", "url", q.baseURL, "collection", q.cfg.Collection, "vector_dim", size)
	return nil
}

func (q *Qdrant) Index(ctx context.Context, sessionID string, docs []Document) error {
	const op = "upsert"
	var points []map[string]any
	for _, d := range docs {
		for i, chunk := range Chunk(d.Text, defaultChunkChars) {
			vec, err := q.embed(ctx, op, chunk)
			if err != nil {
				return err
			}
			points = append(points, map[string]any{
				"id":     q.pointID(sessionID, d.Source, i),
				"vector": vec,
				"payload": map[string]any{
					payloadSessionKey: sessionID,
					payloadSourceKey:  string(d.Source),
					payloadTextKey:    chunk,
					payloadIndexKey:   i,
				},
			})
		}
	}
	if len(points) == 0 {
		return nil
	}
	return q.doJSON(ctx, op, http.MethodPut, q.collectionPath("/points?wait=true"), map[string]any{"points": points}, nil)
}

func (q *Qdrant) Forget(ctx context.Context, sessionID string) error {
	const op = "delete"
	req := map[string]any{"filter": map[string]any{"must": []any{match(payloadSessionKey, sessionID)}}}
	return q.doJSON(ctx, op, http.MethodPost, q.collectionPath("/points/delete?wait=true"), req, nil)
}

func (q *Qdrant) Retrieve(ctx context.Context, query string, sessionID string) (string, error) {
	ctx, span := q.tracer.Start(ctx, "retrieval.qdrant", trace.WithAttributes(attribute.String("collection", q.cfg.Collection)))
	defer span.End()

	out, err := q.retrieve(ctx, query, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (q *Qdrant) retrieve(ctx context.Context, query string, sessionID string) (string, error) {
	const op = "query"
	if strings.TrimSpace(query) == "" {
		return "", nil
	}
	vec, err := q.embed(ctx, op, query)
	if err != nil {
		return "", err
	}

	var matches []Match
	for _, src := range []Source{SourceResume, SourceJobDescription} {
		req := map[string]any{
			"vector":       vec,
			"limit":        sourceTopK[src],
			"with_payload": true,
			"with_vector":  false,
			"filter": map[string]any{"must": []any{
				match(payloadSessionKey, sessionID),
				match(payloadSourceKey, string(src)),
			}},
		}
		var items []qdrantSearchResultItem
		if err := q.doJSON(ctx, op, http.MethodPost, q.collectionPath("/points/search"), req, &items); err != nil {
			return "", err
		}
		for _, it := range items {
			text, _ := it.Payload[payloadTextKey].(string)
			if text == "" {
				continue
			}
			matches = append(matches, Match{Source: src, Text: text, Score: it.Score})
		}
	}
	return formatContext(matches, q.cfg.MaxChars), nil
}

func (q *Qdrant) embed(ctx context.Context, op, text string) ([]float32, error) {
	vec, err := q.embedder.Embed(ctx, text)
	if err != nil {
		return nil, opErr(op, OperationErrorEmbedFailed, "embed failed", err)
	}
	if q.cfg.VectorDim > 0 && len(vec) != q.cfg.VectorDim {
		return nil, opErr(op, OperationErrorValidation,
			fmt.Sprintf("vector dimension mismatch: expected=%d got=%d", q.cfg.VectorDim, len(vec)), nil)
	}
	return vec, nil
}

func match(key, value string) map[string]any {
	return map[string]any{"key": key, "match": map[string]any{"value": value}}
}

func (q *Qdrant) pointID(sessionID string, src Source, index int) string {
	return uuid.NewSHA1(pointIDNamespaceUUID, []byte(fmt.Sprintf("%s|%s|%d", sessionID, src, index))).String()
}

func (q *Qdrant) collectionPath(suffix string) string {
	return "/collections/" + q.cfg.Collection + suffix
}

func (q *Qdrant) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var envelope qdrantEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(envelope.Status); statusErr != "" {
		return &OperationError{Code: OperationErrorQueryFailed, Operation: op, StatusCode: resp.StatusCode, Message: statusErr}
	}
	if out == nil || len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.EqualFold(s, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", s)
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && strings.TrimSpace(obj.Error) != "" {
		return strings.TrimSpace(obj.Error)
	}
	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}
