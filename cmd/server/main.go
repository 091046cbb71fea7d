package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"wellness-backend-go/internal/config"
	"wellness-backend-go/internal/db"
	httpapi "wellness-backend-go/internal/http"
	"wellness-backend-go/internal/logger"
	"wellness-backend-go/internal/migrations"
	"wellness-backend-go/internal/services"
)

var version = "dev"

// configFile is set by the --config flag.
var configFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wellness",
		Short:         "Wellness tracker API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml); env vars take precedence")
	root.AddCommand(serveCmd(), migrateCmd(), versionCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply migrations and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	appLog, closer, err := logger.New(logger.Config{
		Dir:           cfg.LogDir,
		RetentionDays: cfg.LogRetentionDays,
		Level:         cfg.LogLevel,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer closer.Close()

	database, err := db.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer database.Close()
	applied, err := migrations.Apply(database, cfg.DBDriver)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	for _, name := range applied {
		appLog.Info("migration applied", "name", name)
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	revoker, err := newRevoker(ctx, cfg, appLog)
	if err != nil {
		return err
	}

	hub := services.NewEventHub(64)
	go hub.Run(ctx)

	server := httpapi.NewServer(database, cfg, revoker, hub, appLog)
	addr := ":" + cfg.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("listening", "addr", addr, "driver", cfg.DBDriver, "timezone", cfg.Timezone)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(stop)
	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	appLog.Info("shutdown complete")
	return nil
}

// newRevoker prefers Redis so logouts survive restarts and are shared between
// instances.
func newRevoker(ctx context.Context, cfg config.Config, appLog *log.Logger) (services.TokenRevoker, error) {
	if cfg.RedisAddr == "" {
		appLog.Warn("REDIS_ADDR not set, token revocation is kept in memory")
		return services.NewMemoryRevoker(nil), nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rdb, err := services.NewRedisClient(pingCtx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return services.NewRedisRevoker(rdb, nil), nil
}

func migrateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			database, err := db.Open(cfg.DBDriver, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("db: %w", err)
			}
			defer database.Close()

			out := cmd.OutOrStdout()
			if dryRun {
				pending, err := migrations.Pending(database, cfg.DBDriver)
				if err != nil {
					return err
				}
				for _, name := range pending {
					fmt.Fprintln(out, "pending", name)
				}
				return nil
			}
			applied, err := migrations.Apply(database, cfg.DBDriver)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "nothing to apply")
			}
			for _, name := range applied {
				fmt.Fprintln(out, "applied", name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list pending migrations without applying them")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "wellness", version)
		},
	}
}
