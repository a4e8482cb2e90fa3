package realtime

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

// Publisher carries messages to other server instances.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Hub fans session events out to attached observers. Each channel is a
// session id.
type Hub struct {
	log *logger.Logger

	mu            sync.RWMutex
	subscriptions map[string]map[uuid.UUID]Observer

	origin string
	relay  chan Message
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:           log.With("component", "ObserverHub"),
		subscriptions: make(map[string]map[uuid.UUID]Observer),
	}
}

// Attach sends replay to obs, in order, and then subscribes it to channel.
// No live broadcast on the channel can interleave with the replay.
func (h *Hub) Attach(channel string, obs Observer, replay ...Message) {
	channel = strings.TrimSpace(channel)
	if channel == "" || obs == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, msg := range replay {
		msg.Channel = channel
		if err := obs.Send(msg); err != nil {
			h.log.Warn("replay send failed", "observer_id", obs.ID(), "event", string(msg.Event), "error", err)
		}
	}
	subs, ok := h.subscriptions[channel]
	if !ok {
		subs = make(map[uuid.UUID]Observer)
		h.subscriptions[channel] = subs
	}
	subs[obs.ID()] = obs
	h.log.Debug("observer attached", "observer_id", obs.ID(), "session_id", channel, "observers", len(subs))
}

// Detach unsubscribes the observer. It reports whether it was attached.
func (h *Hub) Detach(channel string, id uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subscriptions[channel]
	if !ok {
		return false
	}
	if _, ok := subs[id]; !ok {
		return false
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(h.subscriptions, channel)
	}
	h.log.Debug("observer detached", "observer_id", id, "session_id", channel)
	return true
}

// Broadcast delivers msg to local observers and, when a relay is running,
// forwards it to other instances.
func (h *Hub) Broadcast(msg Message) {
	h.Deliver(msg)
	if h.relay == nil || msg.Origin != "" {
		return
	}
	msg.Origin = h.origin
	select {
	case h.relay <- msg:
	default:
		h.log.Warn("dropping relayed message; relay buffer full", "session_id", msg.Channel, "event", string(msg.Event))
	}
}

// Deliver sends msg to the observers attached on this instance only. A
// failing observer never affects the others; closed observers are removed.
func (h *Hub) Deliver(msg Message) {
	if msg.Channel == "" {
		return
	}
	var gone []uuid.UUID
	h.mu.RLock()
	for id, obs := range h.subscriptions[msg.Channel] {
		err := obs.Send(msg)
		switch {
		case err == nil:
		case errors.Is(err, ErrObserverClosed):
			gone = append(gone, id)
		default:
			h.log.Warn("dropping message for observer", "observer_id", id, "event", string(msg.Event), "error", err)
		}
	}
	h.mu.RUnlock()

	for _, id := range gone {
		h.Detach(msg.Channel, id)
	}
}

// Count returns the number of observers attached to channel.
func (h *Hub) Count(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[channel])
}

// CloseChannel closes and removes every observer on channel.
func (h *Hub) CloseChannel(channel string) {
	h.mu.Lock()
	subs := h.subscriptions[channel]
	delete(h.subscriptions, channel)
	h.mu.Unlock()
	for _, obs := range subs {
		obs.Close()
	}
}

// StartRelay publishes every locally originated broadcast through pub until
// ctx is done. Must be called before the first Broadcast.
func (h *Hub) StartRelay(ctx context.Context, pub Publisher, origin string, buffer int) {
	if buffer <= 0 {
		buffer = 256
	}
	h.origin = origin
	h.relay = make(chan Message, buffer)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-h.relay:
				if err := pub.Publish(ctx, msg); err != nil {
					h.log.Warn("relay publish failed", "session_id", msg.Channel, "event", string(msg.Event), "error", err)
				}
			}
		}
	}()
}

// Receive is the relay's inbound side: messages from other instances are
// delivered locally, our own echoes are ignored.
func (h *Hub) Receive(msg Message) {
	if msg.Origin == h.origin {
		return
	}
	h.Deliver(msg)
}
