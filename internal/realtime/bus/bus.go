package bus

import (
	"context"

	"github.com/yungbote/interviewcoach-backend/internal/realtime"
)

// Bus carries observer events between server instances.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error
	Ping(ctx context.Context) error
	Close() error
}
