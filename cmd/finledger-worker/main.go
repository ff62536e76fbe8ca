package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"finledger/internal/amqp"
	"finledger/internal/cli"
	"finledger/internal/export"
	"finledger/internal/worker"
)

func main() {
	logger, cfg := cli.Bootstrap("finledger-worker")
	logger.Info("Starting export worker")

	// The worker reads pending transactions from SQLite regardless of the
	// server's backend setting
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	csvWriter, err := export.NewCSVWriter(cfg.ExportCSVPath)
	if err != nil {
		logger.Error("Failed to initialize CSV writer", "error", err, "path", cfg.ExportCSVPath)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(repo, csvWriter, cfg.ExportBatchSize)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// On startup, export anything that was missed while the worker was down
	logger.Info("Performing startup export check...")
	if err := exportWorker.StartupExportCheck(ctx); err != nil {
		logger.Error("Startup export check failed", "error", err)
		// Don't exit - continue with normal operation
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeTransactionAdded(ctx, func(msg *amqp.TransactionAddedMessage) error {
			return exportWorker.HandleExportMessage(ctx, msg)
		})
	})

	// Periodic sweep for transactions whose messages were lost
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := exportWorker.ProcessPendingExports(ctx); err != nil {
					logger.Error("Periodic export failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
