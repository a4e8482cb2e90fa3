package app

import (
	"context"
	"fmt"

	repos "github.com/yungbote/interviewcoach-backend/internal/data/repos/interview"
	"github.com/yungbote/interviewcoach-backend/internal/db"
	httpx "github.com/yungbote/interviewcoach-backend/internal/http"
	httpH "github.com/yungbote/interviewcoach-backend/internal/http/handlers"
	"github.com/yungbote/interviewcoach-backend/internal/inference/router"
	"github.com/yungbote/interviewcoach-backend/internal/llm"
	"github.com/yungbote/interviewcoach-backend/internal/realtime"
	"github.com/yungbote/interviewcoach-backend/internal/realtime/bus"
	"github.com/yungbote/interviewcoach-backend/internal/retrieval"
)

func (a *App) wireStorage() error {
	svc, err := db.Open(a.Cfg.Storage, a.Log)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if svc == nil {
		a.Log.Info("storage disabled, sessions are kept in memory only")
		return nil
	}
	a.closers = append(a.closers, func(context.Context) error { return svc.Close() })
	if a.Cfg.Storage.AutoMigrate {
		if err := svc.AutoMigrate(); err != nil {
			return fmt.Errorf("storage automigrate: %w", err)
		}
	}
	a.DB = svc
	a.Store = repos.NewStore(svc.DB(), a.Log)
	return nil
}

func (a *App) wireInference() error {
	r, err := router.New(a.Cfg)
	if err != nil {
		return fmt.Errorf("init inference router: %w", err)
	}
	a.LLM = llm.New(r, a.Log)
	a.Log.Info("inference routes ready", "models", r.ListModels(), "reply", a.Cfg.Purposes.Reply, "coach", a.Cfg.Purposes.Coach)
	return nil
}

func (a *App) wireRetrieval(ctx context.Context) error {
	svc, err := retrieval.New(ctx, a.Log, a.Cfg.Retrieval, a.LLM)
	if err != nil {
		return fmt.Errorf("init retrieval: %w", err)
	}
	a.Retrieval = svc
	return nil
}

func (a *App) wireRealtime() error {
	a.Hub = realtime.NewHub(a.Log)
	if a.Cfg.Redis.Addr == "" {
		return nil
	}
	b, err := bus.NewRedisBus(a.Log, a.Cfg.Redis)
	if err != nil {
		return fmt.Errorf("init redis bus: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return b.Close() })
	a.Bus = b
	return nil
}

func (a *App) routerConfig() httpx.RouterConfig {
	checks := map[string]httpH.Check{}
	if a.DB != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := a.DB.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if a.Bus != nil {
		checks["redis"] = a.Bus.Ping
	}
	return httpx.RouterConfig{
		Log:             a.Log,
		ServiceName:     a.Cfg.ServiceName,
		AllowedOrigins:  a.Cfg.HTTP.AllowedOrigins,
		MaxBodyBytes:    a.Cfg.HTTP.MaxRequestBytes,
		Metrics:         a.Metrics,
		HealthHandler:   httpH.NewHealthHandler(checks),
		SessionHandler:  httpH.NewSessionHandler(a.Log, a.Manager),
		RealtimeHandler: httpH.NewRealtimeHandler(a.Log, a.Manager),
	}
}
