package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/interviewcoach-backend/internal/http/handlers"
	httpMW "github.com/yungbote/interviewcoach-backend/internal/http/middleware"
	"github.com/yungbote/interviewcoach-backend/internal/observability"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	MaxBodyBytes   int64
	Metrics        *observability.Metrics

	HealthHandler   *httpH.HealthHandler
	SessionHandler  *httpH.SessionHandler
	RealtimeHandler *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))
	r.Use(httpMW.LimitBody(cfg.MaxBodyBytes))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	sessions := api.Group("/sessions")
	{
		if cfg.SessionHandler != nil {
			sessions.POST("", cfg.SessionHandler.Create)
			sessions.GET("/:id", cfg.SessionHandler.Get)
			sessions.POST("/:id/join", cfg.SessionHandler.Join)
			sessions.POST("/:id/end", cfg.SessionHandler.End)
			sessions.POST("/:id/fragments", cfg.SessionHandler.Fragment)
			sessions.POST("/:id/documents", cfg.SessionHandler.Documents)
			sessions.GET("/:id/state", cfg.SessionHandler.State)
			sessions.GET("/:id/transcript", cfg.SessionHandler.Transcript)
		}

		// Realtime (SSE / WebSocket)
		if cfg.RealtimeHandler != nil {
			sessions.GET("/:id/voice", cfg.RealtimeHandler.Voice)
			sessions.GET("/:id/insights/stream", cfg.RealtimeHandler.InsightStream)
			sessions.GET("/:id/insights/ws", cfg.RealtimeHandler.InsightSocket)
		}
	}

	return r
}
