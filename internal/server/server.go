package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carrivo/assistant/config"
	"github.com/carrivo/assistant/internal/chat"
	"github.com/carrivo/assistant/internal/store"
)

// Server exposes the chat endpoint, the roadmap read API and the
// operational endpoints over a single echo instance.
type Server struct {
	echo  *echo.Echo
	cfg   config.ServerConfig
	store *store.Store
}

func New(cfg config.ServerConfig, language config.LanguageConfig, telemetry config.TelemetryConfig, st *store.Store, orch *chat.Orchestrator) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	s := &Server{echo: e, cfg: cfg, store: st}

	e.GET("/healthz", s.health)
	if telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api/v1")
	ch := &ChatHandler{Orch: orch, DefaultLanguage: language.Default}
	ch.Register(api)
	rh := &RoadmapsHandler{Store: st}
	rh.Register(api.Group("/roadmaps"))

	return s
}

// health reports liveness plus a database probe so load balancers can
// drain instances that lost Postgres.
func (s *Server) health(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, fmt.Sprintf("database unavailable: %v", err))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) Start() error {
	addr := s.cfg.Address
	if addr == "" {
		addr = ":8080"
	}
	if addr[0] != ':' {
		addr = ":" + addr
	}
	s.echo.Server.ReadTimeout = s.cfg.ReadTimeout
	s.echo.Server.WriteTimeout = s.cfg.WriteTimeout
	log.Printf("listening on %s", addr)
	return s.echo.Start(addr)
}
