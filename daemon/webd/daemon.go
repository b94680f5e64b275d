package webd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/olahol/melody"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/session"
)

type WebDaemon struct {
	Config         *params.WebDaemonConfig
	logger         *slog.Logger
	registry       *session.Registry
	melodyInstance *melody.Melody
	subs           []event.Subscription
	started        time.Time
}

// NewWebDaemon hosts the sessions of registry over HTTP.
// A nil registry gets a default one.
func NewWebDaemon(config *params.WebDaemonConfig, registry *session.Registry) *WebDaemon {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	if registry == nil {
		registry = session.NewRegistry(nil)
	}
	return &WebDaemon{
		Config:   config,
		logger:   slog.With("d", "web"),
		registry: registry,
		started:  time.Now(),
	}
}

// Run starts the HTTP server and the session registry and waits for
// ctx to be canceled, then shuts both down.
// It returns any server error other than a clean close.
func (s *WebDaemon) Run(ctx context.Context) error {
	router := s.NewRouter()
	defer s.closeSocket()

	listener, err := net.Listen(s.Config.Network, s.Config.Address)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	server := &http.Server{Handler: router}

	go s.registry.Start()
	defer s.registry.Stop()

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("Starting web daemon", "listening", listener.Addr().String())
		errs <- server.Serve(listener)
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Stopping web daemon")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *WebDaemon) NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	router.Use(s.loggingMiddleware)

	// Handle websocket.
	s.initMelody()
	router.Path("/socket").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = s.melodyInstance.HandleRequest(w, r)
	})

	apiRoutes := router.NewRoute().Subrouter()

	// All API routes use permissive CORS settings.
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/last").HandlerFunc(s.handleLasts).Methods(http.MethodGet)
	apiJSONRoutes.Path("/devices/{device}/last").HandlerFunc(s.handleLast).Methods(http.MethodGet)

	authenticatedAPIRoutes := apiRoutes.NewRoute().Subrouter()
	authenticatedAPIRoutes.Use(s.tokenAuthenticationMiddleware)

	authenticatedAPIRoutes.Path("/devices/{device}/fixes").HandlerFunc(s.handleFixes).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/devices/{device}/reset").HandlerFunc(s.handleReset).Methods(http.MethodPost)

	return router
}
