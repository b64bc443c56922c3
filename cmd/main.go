package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/shopwise/advisor/internal/advisor"
	"github.com/shopwise/advisor/internal/config"
	"github.com/shopwise/advisor/internal/cost"
	"github.com/shopwise/advisor/internal/domain"
	"github.com/shopwise/advisor/internal/httpserver"
	"github.com/shopwise/advisor/internal/httpserver/middleware"
	"github.com/shopwise/advisor/internal/ledger"
	ledgerredis "github.com/shopwise/advisor/internal/ledger/redis"
	"github.com/shopwise/advisor/internal/observability"
	"github.com/shopwise/advisor/internal/provider"
	"github.com/shopwise/advisor/internal/registry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *httpserver.Server) {
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case startErr := <-errCh:
			if startErr != nil {
				log.Fatalf("Server failed to start: %v", startErr)
			}
		case <-stop:
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if shutdownErr := server.Shutdown(ctx); shutdownErr != nil {
				log.Fatalf("Server shutdown failed: %v", shutdownErr)
			}
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	provide(container, config.Load)
	provide(container, config.ParseDependenciesConfig)

	// Observability
	provide(container, observability.InitLogger)

	// Model registry
	provide(container, registry.New)

	// Provider layer: credentials, transport, completer
	provide(container, func(cfg *config.ProvidersConfig) provider.Credentials {
		return provider.NewConfigCredentials(cfg)
	})
	provide(container, func(cfg *config.ProvidersConfig) *provider.Transport {
		return provider.NewTransport(time.Duration(cfg.TimeoutSeconds) * time.Second)
	})
	provide(container, func(reg *registry.Registry, creds provider.Credentials, transport *provider.Transport) domain.Completer {
		return provider.NewService(reg, creds, transport)
	})

	// Cost accounting
	provide(container, func(reg *registry.Registry) domain.CostCalculator {
		return cost.NewCalculator(reg)
	})

	// Ledger: Redis-backed when configured, in-memory otherwise
	provide(container, func(cfg *config.LedgerConfig, logger *zap.Logger) ledger.Store {
		if cfg.RedisAddr == "" {
			logger.Warn("no ledger redis address configured, billing state will not survive restarts")
			return ledger.NewMemoryStore()
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return ledgerredis.NewStore(client, cfg.RedisKey)
	})
	provide(container, func(store ledger.Store, cfg *config.LedgerConfig) *ledger.Ledger {
		return ledger.New(context.Background(), store, cfg.CreditLimit)
	})
	provide(container, func(led *ledger.Ledger) domain.Recorder {
		return led
	})

	// Capability service
	provide(container, advisor.New)

	// HTTP layer
	provide(container, middleware.BuildMiddlewareChain)
	provide(container, httpserver.NewHandler)
	provide(container, httpserver.NewServer)

	return container
}

func provide(container *dig.Container, constructor interface{}) {
	if err := container.Provide(constructor); err != nil {
		log.Fatalf("Failed to provide dependency: %v", err)
	}
}
