package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/bareclient/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/bareclient/internal/logging"
)

// StatusFunc reports extra fields for the health endpoint.
type StatusFunc func() gin.H

// Config configures the diagnostics listener.
type Config struct {
	Address     string
	Development bool
}

// Server exposes /metrics and /health next to a running client.
type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *logging.Logger
}

// New creates a diagnostics server. status may be nil.
func New(cfg Config, metrics *monitoring.Metrics, logger *logging.Logger, status StatusFunc) *Server {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if status != nil {
			for k, v := range status() {
				body[k] = v
			}
		}
		c.JSON(http.StatusOK, body)
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Address,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens in the background and returns the bound address.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return "", err
	}
	addr := ln.Addr().String()
	s.logger.Info("Starting diagnostics server", zap.String("addr", addr))

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Diagnostics server failed", zap.Error(err))
		}
	}()
	return addr, nil
}

// Close gracefully shuts down the server
func (s *Server) Close(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
