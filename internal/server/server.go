package server

import (
	"context"
	"net/http"
	"time"

	"github.com/devcosts/devcosts/internal/alert"
	alertdomain "github.com/devcosts/devcosts/internal/alert/domain"
	"github.com/devcosts/devcosts/internal/alert/evaluator"
	"github.com/devcosts/devcosts/internal/config"
	"github.com/devcosts/devcosts/internal/connection"
	connectiondomain "github.com/devcosts/devcosts/internal/connection/domain"
	"github.com/devcosts/devcosts/internal/dashboard"
	"github.com/devcosts/devcosts/internal/notify"
	"github.com/devcosts/devcosts/internal/observability"
	obsmiddleware "github.com/devcosts/devcosts/internal/observability/logger"
	obsmetrics "github.com/devcosts/devcosts/internal/observability/metrics"
	obstracing "github.com/devcosts/devcosts/internal/observability/tracing"
	"github.com/devcosts/devcosts/internal/provider"
	"github.com/devcosts/devcosts/internal/provider/adapters"
	"github.com/devcosts/devcosts/internal/sync"
	"github.com/devcosts/devcosts/internal/usagerecord"
	"github.com/devcosts/devcosts/internal/vault"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	vault.Module,
	provider.Module,
	connection.Module,
	usagerecord.Module,
	sync.Module,
	notify.Module,
	alert.Module,
	dashboard.Module,
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	registry      *adapters.Registry
	connectionSvc connectiondomain.Service
	alertSvc      alertdomain.Service
	dashboardSvc  *dashboard.Service
	orchestrator  *sync.Orchestrator
	evaluator     *evaluator.Evaluator
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	Registry      *adapters.Registry
	ConnectionSvc connectiondomain.Service
	AlertSvc      alertdomain.Service
	DashboardSvc  *dashboard.Service
	Orchestrator  *sync.Orchestrator
	Evaluator     *evaluator.Evaluator
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		registry:      p.Registry,
		connectionSvc: p.ConnectionSvc,
		alertSvc:      p.AlertSvc,
		dashboardSvc:  p.DashboardSvc,
		orchestrator:  p.Orchestrator,
		evaluator:     p.Evaluator,
	}
}

func RegisterRoutes(s *Server) {
	s.RegisterAPIRoutes()
	s.RegisterCronRoutes()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/providers", s.ListProviders)

	user := api.Group("", s.UserRequired())
	{
		// -------- Connections --------
		user.GET("/connections", s.ListConnections)
		user.POST("/connections", s.CreateConnection)
		user.POST("/connections/test", s.TestConnection)
		user.POST("/connections/:id/sync", s.SyncConnection)
		user.DELETE("/connections/:id", s.DeleteConnection)

		// -------- Alerts --------
		user.GET("/alerts", s.ListAlerts)
		user.POST("/alerts", s.CreateAlert)
		user.PATCH("/alerts/:id", s.UpdateAlert)
		user.DELETE("/alerts/:id", s.DeleteAlert)
		user.GET("/alerts/:id/history", s.AlertHistory)

		// -------- Dashboard --------
		user.GET("/dashboard", s.GetDashboard)
		user.GET("/dashboard/report", s.GetDashboardReport)
	}
}

func (s *Server) RegisterCronRoutes() {
	cron := s.engine.Group("/api/cron", s.CronAuthRequired())

	cron.POST("/sync", s.CronSync)
	cron.POST("/check-alerts", s.CronCheckAlerts)
}
