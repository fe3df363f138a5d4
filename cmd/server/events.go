package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pier11/marina-map/internal/config"
	"github.com/pier11/marina-map/internal/queue"
	"github.com/pier11/marina-map/pkg/logger"
)

// consumeEventsCmd drains the audit queue into a rotating JSON log file.
// It needs no database.
var consumeEventsCmd = &cobra.Command{
	Use:   "consume-events",
	Short: "Write published marina events to the audit log file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		zl, err := logger.NewLogger(cfg.Log)
		if err != nil {
			return err
		}
		defer zl.Sync() //nolint:errcheck
		sink, err := logger.NewFileLogger(cfg.Log, cfg.Events.LogFile)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		defer sink.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		zl.Info("consuming events",
			zap.String("queue", cfg.Events.Queue),
			zap.String("file", cfg.Events.LogFile))
		err = queue.NewConsumer(cfg.Events.URL, cfg.Events.Queue, sink, zl).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
