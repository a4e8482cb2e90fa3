package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

func recvMessage(t *testing.T, ch <-chan Message, timeout time.Duration) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for message")
	}
	return Message{}
}

type failingObserver struct {
	id    uuid.UUID
	calls int
}

func (f *failingObserver) ID() uuid.UUID { return f.id }
func (f *failingObserver) Send(Message) error {
	f.calls++
	return errors.New("socket gone")
}
func (f *failingObserver) Close() {}

func TestHubReplayPrecedesLiveEvents(t *testing.T) {
	hub := NewHub(logger.Nop())
	channel := uuid.New().String()
	client := NewClient(16)

	hub.Attach(channel, client,
		Message{Event: EventConnected},
		Message{Event: EventQuestionType, Data: "behavioral"},
		Message{Event: EventStarProgress},
		Message{Event: EventInsight, Data: "tip 1"},
	)
	hub.Broadcast(Message{Channel: channel, Event: EventTranscript})

	want := []Event{EventConnected, EventQuestionType, EventStarProgress, EventInsight, EventTranscript}
	for i, ev := range want {
		got := recvMessage(t, client.Outbound(), time.Second)
		if got.Event != ev {
			t.Fatalf("message %d: want=%s got=%s", i, ev, got.Event)
		}
		if got.Channel != channel {
			t.Fatalf("message %d: channel=%q", i, got.Channel)
		}
	}
}

func TestHubIsolatesFailingObserver(t *testing.T) {
	hub := NewHub(logger.Nop())
	channel := uuid.New().String()
	bad := &failingObserver{id: uuid.New()}
	good := NewClient(4)
	hub.Attach(channel, bad)
	hub.Attach(channel, good)

	hub.Broadcast(Message{Channel: channel, Event: EventInsight})
	if got := recvMessage(t, good.Outbound(), time.Second); got.Event != EventInsight {
		t.Fatalf("good observer got %s", got.Event)
	}
	if bad.calls != 1 {
		t.Fatalf("bad observer calls=%d", bad.calls)
	}
	if hub.Count(channel) != 2 {
		t.Fatalf("a send error alone should not detach, count=%d", hub.Count(channel))
	}
}

func TestHubDetachAndClosedObservers(t *testing.T) {
	hub := NewHub(logger.Nop())
	channel := uuid.New().String()
	a := NewClient(4)
	b := NewClient(4)
	hub.Attach(channel, a)
	hub.Attach(channel, b)

	if !hub.Detach(channel, a.ID()) {
		t.Fatalf("expected detach to succeed")
	}
	if hub.Detach(channel, a.ID()) {
		t.Fatalf("second detach should report false")
	}
	hub.Broadcast(Message{Channel: channel, Event: EventSpeech})
	select {
	case msg := <-a.Outbound():
		t.Fatalf("detached observer received %s", msg.Event)
	default:
	}
	recvMessage(t, b.Outbound(), time.Second)

	b.Close()
	hub.Broadcast(Message{Channel: channel, Event: EventSpeech})
	if hub.Count(channel) != 0 {
		t.Fatalf("closed observer should be pruned, count=%d", hub.Count(channel))
	}
}

func TestHubCloseChannel(t *testing.T) {
	hub := NewHub(logger.Nop())
	channel := uuid.New().String()
	client := NewClient(4)
	hub.Attach(channel, client)
	hub.CloseChannel(channel)

	select {
	case <-client.Done():
	case <-time.After(time.Second):
		t.Fatalf("client not closed")
	}
	if err := client.Send(Message{Channel: channel}); !errors.Is(err, ErrObserverClosed) {
		t.Fatalf("send after close: %v", err)
	}
}

func TestClientSendDoesNotBlock(t *testing.T) {
	client := NewClient(1)
	if err := client.Send(Message{Event: EventInsight}); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := client.Send(Message{Event: EventInsight}); !errors.Is(err, ErrObserverFull) {
		t.Fatalf("expected ErrObserverFull, got %v", err)
	}
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []Message
	sent chan struct{}
}

func (p *recordingPublisher) Publish(ctx context.Context, msg Message) error {
	p.mu.Lock()
	p.msgs = append(p.msgs, msg)
	p.mu.Unlock()
	p.sent <- struct{}{}
	return nil
}

func TestHubRelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(logger.Nop())
	pub := &recordingPublisher{sent: make(chan struct{}, 4)}
	hub.StartRelay(ctx, pub, "node-a", 4)

	channel := uuid.New().String()
	client := NewClient(8)
	hub.Attach(channel, client)

	hub.Broadcast(Message{Channel: channel, Event: EventInsight})
	select {
	case <-pub.sent:
	case <-time.After(time.Second):
		t.Fatalf("relay did not publish")
	}
	pub.mu.Lock()
	if pub.msgs[0].Origin != "node-a" {
		t.Fatalf("origin=%q", pub.msgs[0].Origin)
	}
	pub.mu.Unlock()
	recvMessage(t, client.Outbound(), time.Second)

	// own echo ignored, remote delivered
	hub.Receive(Message{Channel: channel, Event: EventInsight, Origin: "node-a"})
	hub.Receive(Message{Channel: channel, Event: EventSpeech, Origin: "node-b"})
	if got := recvMessage(t, client.Outbound(), time.Second); got.Event != EventSpeech {
		t.Fatalf("want remote speech, got %s", got.Event)
	}
}
