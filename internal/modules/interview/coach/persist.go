package coach

import (
	"context"
	"sync"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
)

// persistItem is a transcript entry to save, or a barrier when done is set.
type persistItem struct {
	entry domain.TranscriptEntry
	done  chan struct{}
}

// persistQueue is the unbounded, ordered hand-off between record and the
// transcript writer. Unlike the analysis queue it never drops entries.
type persistQueue struct {
	mu      sync.Mutex
	pending []persistItem
	closed  bool
	wake    chan struct{}
}

func newPersistQueue() *persistQueue {
	return &persistQueue{wake: make(chan struct{}, 1)}
}

func (q *persistQueue) push(it persistItem) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.pending = append(q.pending, it)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

func (q *persistQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// take blocks until there is work or the queue is closed. ok is false once
// the queue is closed and drained, or ctx is done.
func (q *persistQueue) take(ctx context.Context) (items []persistItem, ok bool) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			items, q.pending = q.pending, nil
			q.mu.Unlock()
			return items, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, false
		}
		select {
		case <-q.wake:
		case <-ctx.Done():
			return nil, false
		}
	}
}

func (e *Engine) writeTranscript(ctx context.Context) {
	defer close(e.writerDone)
	for {
		items, ok := e.persist.take(ctx)
		if !ok {
			return
		}
		for _, it := range items {
			if it.done != nil {
				close(it.done)
				continue
			}
			e.persistEntry(ctx, it.entry)
		}
	}
}

// flushTranscript waits until every entry recorded before the call has been
// handed to the sink.
func (e *Engine) flushTranscript(ctx context.Context) error {
	done := make(chan struct{})
	if !e.persist.push(persistItem{done: done}) {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-e.writerDone:
		select {
		case <-done:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
