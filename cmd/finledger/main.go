package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"finledger/internal/cache"
	"finledger/internal/cli"
	"finledger/internal/config"
	apphttp "finledger/internal/http"
	applog "finledger/internal/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := cli.OpenBackend(ctx, cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", applog.FieldError, err.Error())
		}
	}()

	caches := cache.NewManager()
	caches.StartCleanup(cfg.CacheTTL)
	defer caches.Stop()

	srv := apphttp.NewServer(res.Backend, apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheSize:          cfg.CacheSize,
		CacheTTL:           cfg.CacheTTL,
		SeedFilePath:       cfg.SeedFilePath,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger,
		Cache:              caches,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting finledger server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"amqp_enabled", cfg.AMQPEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if fwd := res.Backend.Forwarder; fwd != nil {
		g.Go(func() error {
			return fwd.Run(gctx)
		})
	}

	return g.Wait()
}
