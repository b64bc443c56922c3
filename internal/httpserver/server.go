package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopwise/advisor/internal/config"
	"github.com/shopwise/advisor/internal/httpserver/middleware"
	"github.com/shopwise/advisor/internal/observability"

	"go.uber.org/zap"
)

// Server represents the HTTP server.
type Server struct {
	config      config.ServerConfig
	handler     *Handler
	middlewares middleware.Middleware
	srv         *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg *config.ServerConfig,
	handler *Handler,
	middlewares middleware.Middleware,
) *Server {
	return &Server{
		config:      *cfg,
		handler:     handler,
		middlewares: middlewares,
		srv:         nil,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Capability routes.
	mux.HandleFunc("/v1/tax-rate", s.handler.HandleTaxRate)
	mux.HandleFunc("/v1/price-tag", s.handler.HandlePriceTag)
	mux.HandleFunc("/v1/price-search", s.handler.HandlePriceSearch)
	mux.HandleFunc("/v1/price-guess", s.handler.HandlePriceGuess)
	mux.HandleFunc("/v1/additives", s.handler.HandleAdditives)

	// Ledger routes.
	mux.HandleFunc("/v1/ledger", s.handler.HandleLedger)
	mux.HandleFunc("/v1/ledger/reset", s.handler.HandleLedgerReset)
	mux.HandleFunc("/v1/ledger/baseline", s.handler.HandleLedgerBaseline)
	mux.HandleFunc("/v1/ledger/adjust", s.handler.HandleLedgerAdjust)
	mux.HandleFunc("/v1/ledger/trim", s.handler.HandleLedgerTrim)

	mux.HandleFunc("/health", s.handler.HandleHealth)

	// Apply middleware chain.
	handlerWithMiddleware := s.middlewares(mux)

	// Create server with timeouts. The write timeout bounds the
	// longest capability call, including tax-rate retries.
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      handlerWithMiddleware,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
	}

	ctx := context.Background()
	observability.FromContext(ctx).Info("starting HTTP server", zap.Int("port", s.config.Port))

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	observability.FromContext(ctx).Info("shutting down HTTP server")

	if s.srv == nil {
		return nil
	}

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
