package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

func TestServeSSEWritesEventsUntilClientCloses(t *testing.T) {
	client := NewClient(4)
	_ = client.Send(Message{Channel: "s1", Event: EventQuestionType, Data: "technical"})
	client.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/s1/insights/stream", nil)
	ServeSSE(logger.Nop(), rec, req, client)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type=%q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: question_type\ndata: {\"channel\":\"s1\",\"event\":\"question_type\",\"data\":\"technical\"}\n\n") {
		t.Fatalf("unexpected body: %q", body)
	}
}
