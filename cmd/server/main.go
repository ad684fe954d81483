package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"notebook/internal/config"
	mcpserver "notebook/internal/mcp"
	"notebook/internal/notes"
	httpserver "notebook/internal/server"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "notebook",
	Short:         "A small note-taking HTTP API backed by a JSON file",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

var initStoreCmd = &cobra.Command{
	Use:   "init-store",
	Short: "Create an empty note collection if none exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		return initStore(cmd.Context(), cfg, logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("store", "", "Storage backend: file, sqlite, postgres or mongo")
	rootCmd.PersistentFlags().String("file", "", "Path of the JSON notes file")
	rootCmd.PersistentFlags().String("sqlite-path", "", "Path of the SQLite database")
	rootCmd.PersistentFlags().String("postgres-dsn", "", "Postgres connection string")
	rootCmd.PersistentFlags().String("mongo-uri", "", "MongoDB connection URI")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")

	serveCmd.Flags().String("addr", "", "Listen address")
	serveCmd.Flags().String("static-dir", "", "Directory served for unmatched paths")
	serveCmd.Flags().Bool("mcp", true, "Expose the MCP endpoint at /mcp")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initStoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers explicitly set flags over the file and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	strFlags := map[string]*string{
		"store":        &cfg.Store,
		"file":         &cfg.FilePath,
		"sqlite-path":  &cfg.SQLitePath,
		"postgres-dsn": &cfg.PostgresDSN,
		"mongo-uri":    &cfg.MongoURI,
		"log-level":    &cfg.LogLevel,
		"log-format":   &cfg.LogFormat,
		"addr":         &cfg.Addr,
		"static-dir":   &cfg.StaticDir,
	}
	for name, dst := range strFlags {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return cfg, err
		}
	}
	if flags.Lookup("mcp") != nil && flags.Changed("mcp") {
		if cfg.MCP, err = flags.GetBool("mcp"); err != nil {
			return cfg, err
		}
	}

	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})), nil
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})), nil
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	// Context for startup
	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, closeStore, err := openStore(startCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if fs, ok := store.(*notes.FileStore); ok {
		if err := fs.Init(startCtx); err != nil {
			return fmt.Errorf("init notes file: %w", err)
		}
	}

	// Wire dependencies
	metrics := httpserver.NewMetrics()
	noteSvc := notes.NewService(httpserver.InstrumentStore(store, metrics))
	noteHandler := notes.NewHandler(noteSvc, logger)

	deps := httpserver.Deps{
		Service:   noteSvc,
		Handler:   noteHandler,
		Logger:    logger,
		Metrics:   metrics,
		StaticDir: cfg.StaticDir,
	}
	if cfg.MCP {
		deps.MCP = server.NewStreamableHTTPServer(mcpserver.NewServer(noteSvc, version))
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      httpserver.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("server starting", "addr", cfg.Addr, "store", cfg.Store, "version", version)
	logger.Info("endpoints available",
		"api", "/api/notes",
		"ui", "/ui",
		"metrics", "/metrics",
		"mcp", cfg.MCP,
	)

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func initStore(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if fs, ok := store.(*notes.FileStore); ok {
		if err := fs.Init(ctx); err != nil {
			return err
		}
		logger.Info("notes file ready", "path", fs.Path())
		return nil
	}

	// Loading an empty backend yields a fresh collection; saving it writes
	// the document or counter row the backend was missing.
	c, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, c); err != nil {
		return err
	}
	logger.Info("store ready", "store", cfg.Store, "notes", len(c.Notes))
	return nil
}
