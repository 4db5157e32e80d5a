package docqa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	httpopts "github.com/kart-io/docqa/pkg/options/http"
)

// Server wraps the HTTP server with graceful shutdown.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	cleanup         []func()
}

// NewServer builds a gin engine and the HTTP server around it.
func NewServer(opts *httpopts.Options) (*Server, *gin.Engine) {
	gin.SetMode(opts.Mode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      engine,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  opts.IdleTimeout,
		},
		shutdownTimeout: opts.ShutdownTimeout,
	}, engine
}

// OnShutdown registers a cleanup function run after the HTTP server
// stops, in registration order.
func (s *Server) OnShutdown(fn func()) {
	s.cleanup = append(s.cleanup, fn)
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests
// within the shutdown timeout and runs the registered cleanups.
func (s *Server) Run() error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Infow("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Warnw("forced shutdown", "error", err.Error())
	}

	for _, fn := range s.cleanup {
		fn()
	}

	logger.Info("server stopped")
	return nil
}
