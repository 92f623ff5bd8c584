package server

import (
	"context"
	"net/http"
	"time"

	"bazaartrack/internal/bazaar/analytics"
	"bazaartrack/internal/bazaar/stream"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// HealthChecker reports whether the storage backend is reachable.
type HealthChecker func(ctx context.Context) bool

// Server exposes the analytics queries over HTTP and upgrades /ws clients
// into the live broadcast hub.
type Server struct {
	analytics *analytics.Service
	hub       *stream.Hub
	health    HealthChecker
	logger    *zap.Logger
	dev       bool
	upgrader  websocket.Upgrader
}

func New(svc *analytics.Service, hub *stream.Hub, health HealthChecker, logger *zap.Logger, env string) *Server {
	return &Server{
		analytics: svc,
		hub:       hub,
		health:    health,
		logger:    logger,
		dev:       env == "dev",
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	if !s.dev {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)
	r.GET("/ws", s.handleWebSocket)

	api := r.Group("/api/bazaar")
	{
		api.GET("/history/:itemId", s.handleHistory)
		api.GET("/latest", s.handleLatest)
		api.GET("/stats/:itemId", s.handleStats)
		api.GET("/trends/:itemId", s.handleTrends)
		api.GET("/volatility", s.handleVolatility)
	}

	return r
}

// Run blocks serving HTTP until the listener fails.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server listening", zap.String("addr", addr))
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if s.health != nil && !s.health(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s.hub.Add(conn)
}
