package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/emberdate/match-engine/internal/auth"
	"github.com/emberdate/match-engine/internal/config"
	"github.com/emberdate/match-engine/internal/logger"
)

// NewRouter builds the API router: every registrar's routes mounted behind
// the session middleware.
func NewRouter(cfg *config.Config, registrars ...Registrar) *mux.Router {
	router := mux.NewRouter()
	router.Use(mux.MiddlewareFunc(auth.Middleware(cfg.Auth.JWTSecret)))

	for _, r := range registrars {
		r.Register(router)
	}
	return router
}

// StartHTTPServer boots the HTTP server, mounts every registrar behind the
// session middleware, and blocks until shutdown.
func StartHTTPServer(cfg *config.Config, registrars ...Registrar) error {
	router := NewRouter(cfg, registrars...)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.HTTP.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Accept", "Authorization", "Content-Type"}),
	)

	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      cors(handlers.LoggingHandler(os.Stdout, router)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
