package main // entry point: the marina API server and its operator commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pier11/marina-map/internal/config"
	"github.com/pier11/marina-map/internal/database"
	"github.com/pier11/marina-map/internal/metrics"
	"github.com/pier11/marina-map/internal/queue"
	"github.com/pier11/marina-map/internal/repository"
	"github.com/pier11/marina-map/internal/router"
	"github.com/pier11/marina-map/internal/service"
	"github.com/pier11/marina-map/internal/version"
	"github.com/pier11/marina-map/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var (
	envFile string

	rootCmd = &cobra.Command{
		Use:           "marina",
		Short:         version.Name,
		Long:          "Boat inventory and dock map positions for the Pier 11 marina.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, zl, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()
			defer zl.Sync() //nolint:errcheck
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			zl.Info("schema up to date")
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", version.Name, version.Get())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd, newCreateAdminCmd(), consumeEventsCmd)
}

// bootstrap loads configuration, builds the logger and opens the database.
func bootstrap() (config.Config, *zap.Logger, *sql.DB, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("load %s: %w", envFile, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, nil, err
	}
	zl, err := logger.NewLogger(cfg.Log)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.Open(cfg.DB)
	if err != nil {
		return cfg, zl, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, zl, db, nil
}

func serve(ctx context.Context) error {
	cfg, zl, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()
	defer zl.Sync() //nolint:errcheck

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	rdb := config.NewRedisClient(cfg.Redis, zl)
	if rdb != nil {
		defer rdb.Close()
	}

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.Events.Enabled {
		events = queue.NewRabbitPublisher(cfg.Events.URL, cfg.Events.Queue)
		zl.Info("publishing events", zap.String("queue", cfg.Events.Queue))
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	repos := repository.NewRepos(db)
	opts := service.Options{Events: events, Log: zl}
	if m != nil {
		opts.Observer = m
	}
	e := router.New(router.Deps{
		Config:  cfg,
		DB:      db,
		Auth:    service.NewAuthService(repos, cfg, zl),
		Maps:    service.NewMapService(repos, opts),
		Boats:   service.NewBoatService(repos, opts),
		Metrics: m,
		Redis:   rdb,
		Log:     zl,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("version", version.Get()))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Printf("marina: %v", err)
		os.Exit(1)
	}
}
