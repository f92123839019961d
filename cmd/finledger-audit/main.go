package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finledger/internal/amqp"
	"finledger/internal/cli"
	applog "finledger/internal/log"
	"finledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the audit worker")
		os.Exit(1)
	}

	logFile, err := worker.OpenAuditLog(cfg.AuditLogPath)
	if err != nil {
		logger.Error("Failed to open audit log", applog.FieldError, err.Error(), "path", cfg.AuditLogPath)
		os.Exit(1)
	}
	defer logFile.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer client.Close()

	audit := worker.NewAuditWorker(logFile)

	ctx, done := cli.GracefulShutdown(logger.Logger, 10*time.Second, func(context.Context) {
		logger.Info("Audit worker stopping", "counts", audit.Counts())
	})

	logger.Info("Starting finledger-audit",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"audit_log", cfg.AuditLogPath)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeLedgerEvents(gctx, func(msg *amqp.LedgerEventMessage) error {
			return audit.HandleLedgerEvent(gctx, msg)
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", applog.FieldError, err.Error())
		client.Close()
		logFile.Close()
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
