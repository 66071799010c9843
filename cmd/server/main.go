package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/conductor/internal/config"
	"github.com/iliyamo/conductor/internal/database"
	"github.com/iliyamo/conductor/internal/logger"
	"github.com/iliyamo/conductor/internal/queue"
	"github.com/iliyamo/conductor/internal/router"
)

var (
	envFile string

	rootCmd = &cobra.Command{
		Use:   "conductor",
		Short: "Work tracking API: tasks, hours, projects and invoicing",
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
		Short: "Create the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// bootstrap loads the dotenv file, the config and the logger.
func bootstrap() (config.Config, *zap.Logger) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("could not load %s: %v", envFile, err)
	}
	cfg := config.Load()
	zl, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	return cfg, zl
}

func migrate(ctx context.Context) error {
	cfg, zl := bootstrap()
	defer zl.Sync() //nolint:errcheck

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		return err
	}
	zl.Info("schema up to date", zap.String("driver", cfg.DBDriver))
	return nil
}

func serve(parent context.Context) error {
	cfg, zl := bootstrap()
	defer zl.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		zl.Error("open database", zap.Error(err))
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		zl.Error("migrate", zap.Error(err))
		return err
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		zl.Warn("redis unavailable; rate limiting disabled, using in-process locks", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
	}

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		events = queue.NewAMQPPublisher(cfg.RabbitMQURL, zl)
		if cfg.AuditConsumerEnabled {
			go func() {
				if err := queue.StartAuditConsumer(ctx, cfg.RabbitMQURL, zl); err != nil && !errors.Is(err, context.Canceled) {
					zl.Error("audit consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e := router.New(router.Deps{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Events:   events,
		Log:      zl,
		Registry: reg,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
