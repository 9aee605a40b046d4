// Package server assembles the HTTP API and runs it until its context ends.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"wordle-go/internal/auth"
	"wordle-go/internal/game"
	"wordle-go/internal/httpx"
	"wordle-go/internal/leaderboard"
)

type Config struct {
	Port            int
	ShutdownTimeout time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
}

type Server struct {
	cfg     Config
	logger  *slog.Logger
	handler http.Handler
	limiter *RateLimiter
}

func New(cfg Config, logger *slog.Logger, authService *auth.Service, games game.GameService, board *leaderboard.Store) *Server {
	router := httprouter.New()

	authHandler := auth.NewHandler(authService)
	router.POST("/register", authHandler.Register)
	router.GET("/login", authHandler.Login)
	router.POST("/token/refresh", authHandler.RefreshToken)
	router.GET("/me", auth.Require(authHandler.Me))

	game.NewHandler(games, logger).Routes(router)
	leaderboard.NewHandler(board, logger).Routes(router)

	router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "not found")
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		logger.Error("panic serving request", "path", r.URL.Path, "panic", v)
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
	}

	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	var handler http.Handler = router
	handler = authService.Middleware(handler)
	handler = limiter.Middleware(handler)
	handler = accessLog(logger, handler)
	handler = requestID(handler)

	return &Server{cfg: cfg, logger: logger, handler: handler, limiter: limiter}
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests for up to
// ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go s.limiter.RunSweeper(ctx, limiterSweepInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
