package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/adapters/grpc"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/adapters/ledger"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/adapters/rest"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/codec"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/config"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/pkg/grpcserver"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/pkg/httpserver"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/pkg/logging"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/pkg/middleware"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/ports"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// ledgerAdapter is what the service needs from a ledger backend.
type ledgerAdapter interface {
	ports.LedgerPort
	ports.HealthPort
}

func run() error {
	cfg, err := config.Load(os.Args[1:], os.LookupEnv)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Adapters (infrastructure)
	var ledgerImpl ledgerAdapter
	switch cfg.Ledger.Driver {
	case "memory":
		ledgerImpl = ledger.NewMemoryLedger()
	default:
		sqlLedger, err := ledger.Open(ctx, cfg.Ledger.Driver, cfg.Ledger.DSN, logger.With().Str("component", "ledger").Logger())
		if err != nil {
			return err
		}
		defer sqlLedger.Close()
		ledgerImpl = sqlLedger
	}

	// Application service (use cases)
	expenseSvc := usecase.NewExpenseService(ledgerImpl)

	// HTTP (interface adapter)
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)

	mux := http.NewServeMux()
	rest.NewHandler(expenseSvc, codec.DefaultRegistry(),
		rest.WithHealth(ledgerImpl),
		rest.WithMetrics(metrics),
		rest.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
	).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimit.RPS, cfg.HTTP.RateLimit.Burst)
	handler := middleware.Chain(mux, append(middleware.Logging(logger), limiter.Middleware)...)

	httpSrv := httpserver.New(cfg.HTTP.Addr, handler, cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout)

	// Start
	errc := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Str("ledger", cfg.Ledger.Driver).Msg("expense HTTP API listening")
		if err := httpSrv.Start(); err != nil {
			errc <- fmt.Errorf("http serve: %w", err)
		}
	}()

	var grpcSrv *grpcserver.Server
	if cfg.GRPC.Enabled {
		grpcSrv = grpcserver.New(cfg.GRPC.Addr)
		grpc.RegisterExpenseTrackerServer(grpcSrv.Server)
		go grpc.WatchHealth(ctx, grpcSrv.Health, ledgerImpl, cfg.GRPC.HealthInterval, logger)
		go func() {
			logger.Info().Str("addr", cfg.GRPC.Addr).Msg("gRPC health listening")
			if err := grpcSrv.Start(); err != nil {
				errc <- fmt.Errorf("grpc serve: %w", err)
			}
		}()
	}

	// Graceful shutdown
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
		logger.Error().Err(runErr).Msg("server failed")
	}
	logger.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if grpcSrv != nil {
		grpcSrv.Stop()
	}
	return runErr
}
