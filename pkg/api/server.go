// Package api exposes the ranking engine over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/lioia/pagerank/pkg/logging"
	"github.com/lioia/pagerank/pkg/metrics"
	"github.com/lioia/pagerank/pkg/utils"
)

type Server struct {
	echo    *echo.Echo
	config  utils.Config
	metrics *metrics.Registry
	logger  *slog.Logger
}

// NewServer wires routes and middleware. metrics may be nil.
func NewServer(config utils.Config, reg *metrics.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		config:  config,
		metrics: reg,
		logger:  logging.Component(logger, "api"),
	}

	e.Use(middleware.Recover())
	e.Use(s.requestLogger())
	e.Use(s.requestMetrics)

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(reg.Handler()))
	v1 := e.Group("/api/v1")
	v1.POST("/pagerank", s.handleRank)
	v1.POST("/recommendations", s.handleRecommend)
	return s
}

// Handler returns the server as a plain http.Handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves on address until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context, address string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting api server", slog.String("address", address))
		errCh <- s.echo.Start(address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("path", v.URIPath),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				s.logger.Warn("request failed", append(attrs, slog.Any("error", v.Error))...)
				return nil
			}
			s.logger.Debug("request", attrs...)
			return nil
		},
	})
}
