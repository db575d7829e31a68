package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Taskly/config"
	"Taskly/database"
	"Taskly/handlers"
	"Taskly/logger"
	"Taskly/repository"
	"Taskly/services"
	"Taskly/sessionstore"

	"github.com/gorilla/sessions"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

type cliOptions struct {
	configFile  string
	port        string
	databaseURL string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "taskly",
		Short: "Taskly - a multi-user to-do web application",
		Long: `Taskly serves a server-rendered to-do list with session based login.

Run without a subcommand to start the web server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	flags.StringVar(&opts.port, "port", "", "HTTP port (overrides PORT)")
	flags.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (overrides DATABASE_URL)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the web server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), opts)
			},
		},
		newMigrateCmd(opts),
		newCreateAdminCmd(opts),
	)
	return rootCmd
}

// loadConfig layers env, the optional YAML file and flags, then sets up logging.
func (o *cliOptions) loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if o.configFile != "" {
		if err := cfg.LoadFile(o.configFile); err != nil {
			return nil, err
		}
	}
	if o.port != "" {
		cfg.ServerPort = o.port
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}

	logger.Init(cfg.Environment, cfg.Debug)
	return cfg, nil
}

func (o *cliOptions) connect(ctx context.Context) (*config.Config, *sql.DB, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func runServe(ctx context.Context, opts *cliOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, db, err := opts.connect(ctx)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return err
	}

	auth := services.NewAuthService(repository.NewPostgresUserRepository(db))
	created, err := auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		slog.Error("Failed to seed admin user", "error", err)
		return err
	}
	if created {
		slog.Info("Admin user created", "username", cfg.AdminUsername)
	}

	if cfg.IsProduction() && cfg.SessionSecret == config.DefaultSessionSecret {
		slog.Warn("SESSION_SECRET is not set; sessions are signed with the default key")
	}

	store := sessionstore.New(db, sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}, []byte(cfg.SessionSecret))
	go store.Cleanup(ctx, cfg.SessionCleanupInterval)

	h, err := handlers.New(
		services.NewTodoService(repository.NewPostgresTodoRepository(db)),
		auth,
		store,
		handlers.Options{
			SessionName:      handlers.DefaultSessionName,
			AllowAdminSignup: cfg.AllowAdminSignup,
			DB:               db,
		},
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      h.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Taskly is starting",
			"addr", srv.Addr,
			"environment", cfg.Environment,
			"debug", cfg.Debug)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("Server failed", "error", err)
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
