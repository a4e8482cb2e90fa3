package realtime

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrObserverFull   = errors.New("observer outbound buffer full")
	ErrObserverClosed = errors.New("observer closed")
)

// Observer is a live subscriber to a session channel. Send must not block.
type Observer interface {
	ID() uuid.UUID
	Send(msg Message) error
	Close()
}

const DefaultClientBuffer = 64

// Client is a buffered-channel Observer. Transports (SSE, WebSocket, the
// simulate CLI) drain Outbound until Done is closed.
type Client struct {
	id       uuid.UUID
	outbound chan Message
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewClient(buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		id:       uuid.New(),
		outbound: make(chan Message, buffer),
		done:     make(chan struct{}),
	}
}

func (c *Client) ID() uuid.UUID { return c.id }

func (c *Client) Send(msg Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrObserverClosed
	}
	select {
	case c.outbound <- msg:
		return nil
	default:
		return ErrObserverFull
	}
}

// Close stops delivery. Messages already buffered stay readable.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	close(c.outbound)
}

func (c *Client) Outbound() <-chan Message { return c.outbound }

func (c *Client) Done() <-chan struct{} { return c.done }
