package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"llamadesk/internal/app"
	"llamadesk/internal/config"
	"llamadesk/internal/events"
	"llamadesk/internal/httpapi"
	"llamadesk/internal/manager"
	"llamadesk/internal/registry"
	"llamadesk/internal/shell"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "llamadesk:", err)
		os.Exit(1)
	}
}

// options holds the command-line flags before they are merged with the config file.
type options struct {
	configPath    string
	addr          string
	modelsDir     string
	model         string
	logLevel      string
	contextTokens int
	corsOrigins   string
}

func newRootCmd() *cobra.Command {
	var opts options
	root := &cobra.Command{
		Use:           "llamadesk",
		Short:         "Local LLM backend for the llamadesk desktop front-end",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to a config file (.yaml, .json or .toml)")
	pf.StringVar(&opts.modelsDir, "models-dir", "", "Directory to scan for model files (default ~/models/llm)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the command API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	for _, c := range []*cobra.Command{root, serve} {
		f := c.Flags()
		f.StringVar(&opts.addr, "addr", "", "HTTP listen address (default 127.0.0.1:1420)")
		f.StringVar(&opts.model, "model", "", "Model file to load at start-up")
		f.IntVar(&opts.contextTokens, "context-tokens", 0, "Context window in tokens (default 512)")
		f.StringVar(&opts.corsOrigins, "cors-origins", "", "Comma-separated origins allowed to call the API")
	}

	models := &cobra.Command{
		Use:   "models",
		Short: "List the model files found in the models directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			list, err := registry.LoadDir(cfg.ModelsDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range list {
				fmt.Fprintf(out, "%s\t%d\t%s\n", m.Name, m.SizeBytes, m.Path)
			}
			return nil
		},
	}
	root.AddCommand(serve, models)
	return root
}

// resolveConfig loads the optional config file and lets explicitly set flags win.
func resolveConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	var cfg config.Config
	if opts.configPath != "" {
		c, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = opts.addr
	}
	if flags.Changed("models-dir") {
		cfg.ModelsDir = opts.modelsDir
	}
	if flags.Changed("model") {
		cfg.Model = opts.model
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("context-tokens") {
		cfg.ContextTokens = opts.contextTokens
	}
	if flags.Changed("cors-origins") {
		cfg.CORSOrigins = splitCSV(opts.corsOrigins)
	}
	return cfg.WithDefaults(), nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}

func runServe(cmd *cobra.Command, opts options) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)
	if !manager.LlamaBuilt() {
		logger.Warn().Msg("built without the 'llama' tag: model loading will fail with 503")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := registry.NewWatcher(cfg.ModelsDir, logger)
	if err != nil {
		// A missing models directory only empties the picker.
		logger.Warn().Err(err).Str("dir", cfg.ModelsDir).Msg("model registry unavailable")
		watcher = nil
	}

	broker := events.NewBroker(cfg.EventBuffer)
	broker.SetLogger(logger)
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		ContextTokens: cfg.ContextTokens,
		RepeatLastN:   cfg.RepeatLastN,
		Logger:        &logger,
	})
	appOpts := app.Options{
		Manager: mgr,
		Broker:  broker,
		Window:  shell.NewHeadlessWindow(logger),
		Logger:  logger,
	}
	if watcher != nil {
		appOpts.Models = watcher
	}
	a := app.New(appOpts)
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("releasing model")
		}
	}()

	httpapi.SetLogger(logger)
	httpapi.SetBaseContext(ctx)
	if len(cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins,
			[]string{http.MethodGet, http.MethodPost, http.MethodOptions},
			[]string{"Content-Type", "X-Log-Level"})
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(a),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.Addr).Str("models_dir", cfg.ModelsDir).Msg("llamadesk listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if watcher != nil {
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn().Err(err).Msg("registry watcher stopped")
			}
			return nil
		})
	}
	if cfg.Model != "" {
		opID := a.StartLoad(cfg.Model)
		logger.Info().Str("path", cfg.Model).Str("op_id", opID).Msg("autoloading model")
	}
	g.Go(func() error {
		<-gctx.Done()
		// Stop an in-flight inference so handlers can return.
		a.RequestCancel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("graceful shutdown error")
		}
		return nil
	})
	return g.Wait()
}

// splitCSV splits a comma-separated list, dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
