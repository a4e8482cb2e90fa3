package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/interviewcoach-backend/internal/config"
	repos "github.com/yungbote/interviewcoach-backend/internal/data/repos/interview"
	"github.com/yungbote/interviewcoach-backend/internal/db"
	httpx "github.com/yungbote/interviewcoach-backend/internal/http"
	"github.com/yungbote/interviewcoach-backend/internal/llm"
	"github.com/yungbote/interviewcoach-backend/internal/modules/interview"
	"github.com/yungbote/interviewcoach-backend/internal/observability"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
	"github.com/yungbote/interviewcoach-backend/internal/realtime"
	"github.com/yungbote/interviewcoach-backend/internal/realtime/bus"
	"github.com/yungbote/interviewcoach-backend/internal/retrieval"
)

// App is the fully wired service. Fields are exported so commands can reach
// individual parts (the simulate command uses Manager directly).
type App struct {
	Log       *logger.Logger
	Cfg       *config.Config
	DB        *db.Service
	Store     *repos.Store
	LLM       *llm.Client
	Retrieval retrieval.Service
	Hub       *realtime.Hub
	Bus       bus.Bus
	Manager   *interview.Manager
	Metrics   *observability.Metrics
	Server    *httpx.Server

	instanceID string
	closers    []func(context.Context) error
}

// NewLogger builds the process logger. LOG_MODE wins; otherwise production
// environments log JSON and everything else logs for humans.
func NewLogger(cfg *config.Config) (*logger.Logger, error) {
	mode := os.Getenv("LOG_MODE")
	if mode == "" {
		mode = "development"
		if cfg.Env == "production" {
			mode = "production"
		}
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// New wires every component from cfg. Nothing is started until Run.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Log:        log,
		Cfg:        cfg,
		instanceID: uuid.NewString(),
		Metrics:    observability.Init(),
	}
	a.closers = append(a.closers, observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
	}))

	if err := a.wireStorage(); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if err := a.wireInference(); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if err := a.wireRetrieval(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if err := a.wireRealtime(); err != nil {
		a.Close(ctx)
		return nil, err
	}

	deps := interview.Deps{
		Hub:        a.Hub,
		Store:      a.Store,
		Retrieval:  a.Retrieval,
		NewSpeaker: o.newSpeaker,
	}
	a.Manager = interview.NewManager(ctx, log, a.LLM, interview.ConfigFrom(cfg), deps)

	if !o.skipHTTP {
		a.Server = httpx.NewServer(log, cfg.HTTP, a.routerConfig())
	}
	return a, nil
}

// Run starts the background workers and the HTTP server, and blocks until
// ctx is done or one of them fails. Live sessions are ended before it
// returns.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.Bus != nil {
		a.Hub.StartRelay(ctx, a.Bus, a.instanceID, 0)
		if err := a.Bus.StartForwarder(ctx, a.Hub.Receive); err != nil {
			return fmt.Errorf("start event forwarder: %w", err)
		}
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Bus.Ping, 0)
	}

	g.Go(func() error { return a.Manager.Run(ctx) })
	if a.Server != nil {
		g.Go(func() error { return a.Server.Run(ctx) })
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout())
		defer cancel()
		a.Log.Info("ending live sessions", "count", a.Manager.Len())
		a.Manager.Shutdown(shutdownCtx)
		return nil
	})
	return g.Wait()
}

func (a *App) shutdownTimeout() time.Duration {
	if d := a.Cfg.HTTP.ShutdownTimeout.Duration; d > 0 {
		return d
	}
	return 15 * time.Second
}

// Close releases external resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Log.Warn("shutdown step failed", "error", err)
		}
	}
	a.closers = nil
	a.Log.Sync()
}

type options struct {
	skipHTTP   bool
	newSpeaker func(uuid.UUID) interview.Speaker
}

type Option func(*options)

// WithoutHTTP skips the HTTP server, for commands that drive the manager
// directly.
func WithoutHTTP() Option { return func(o *options) { o.skipHTTP = true } }

// WithSpeaker routes replies that have no reply callback to newSpeaker.
func WithSpeaker(newSpeaker func(uuid.UUID) interview.Speaker) Option {
	return func(o *options) { o.newSpeaker = newSpeaker }
}
