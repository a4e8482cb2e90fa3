package coach

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
	"github.com/yungbote/interviewcoach-backend/internal/realtime"
)

// stalledLLM blocks every call until release is closed.
type stalledLLM struct {
	entered chan struct{}
	release chan struct{}
}

func (s *stalledLLM) Classify(ctx context.Context, prompt string) (string, error) {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release
	return `{"skip": true}`, nil
}

func TestTranscriptIsPersistedWhenAnalysisQueueIsFull(t *testing.T) {
	llm := &stalledLLM{entered: make(chan struct{}, 1), release: make(chan struct{})}
	sink := &memorySink{}
	e := New(logger.Nop(), llm, realtime.NewHub(logger.Nop()), Options{
		SessionID: uuid.New(),
		Persona:   domain.Persona{InterviewerName: "Sarah", CandidateName: "Alex"},
		Sink:      sink,
		QueueSize: 1,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	e.ProcessInterviewer("Tell me about a time you disagreed with your manager.")
	select {
	case <-llm.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the interviewer line")
	}
	e.ProcessCandidate("We had a deadline.")
	e.ProcessCandidate("I proposed cutting scope.")
	e.ProcessCandidate("We shipped on time.")

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.entries) == 4
	}, 2*time.Second, 10*time.Millisecond)

	close(llm.release)
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer flushCancel()
	require.NoError(t, e.Flush(flushCtx))

	e.Close()
	<-e.Done()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.entries, 4)
	for i, entry := range sink.entries {
		assert.Equal(t, i+1, entry.Seq)
	}
	assert.Len(t, e.State().Transcript, 4)
}

func TestRecordAfterCloseIsNotPersisted(t *testing.T) {
	sink := &memorySink{}
	e := New(logger.Nop(), &scriptedLLM{}, realtime.NewHub(logger.Nop()), Options{
		SessionID: uuid.New(),
		Sink:      sink,
	})
	go e.Run(context.Background())

	e.ProcessCandidate("Before close.")
	e.Close()
	<-e.Done()
	e.ProcessCandidate("After close.")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.entries, 1)
	assert.Equal(t, "Before close.", sink.entries[0].Text)
}
