package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/leonardcser/mcp-remote/internal/api"
	"github.com/leonardcser/mcp-remote/internal/config"
	"github.com/leonardcser/mcp-remote/internal/logger"
	"github.com/leonardcser/mcp-remote/internal/memory"
	"github.com/leonardcser/mcp-remote/internal/tools"
	"github.com/leonardcser/mcp-remote/internal/web"
)

const (
	serverName    = "MCP Remote"
	serverVersion = "0.2.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		port       int
		stdio      bool
	)
	cmd := &cobra.Command{
		Use:           "mcp-remote",
		Short:         "HTTP memory store and fetch proxy, also served as MCP tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, stdio)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default ./"+config.DefaultFileName+")")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "port to listen on")
	cmd.Flags().BoolVar(&stdio, "stdio", false, "serve the MCP tools over stdio instead of HTTP")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, stdio bool) error {
	if err := logger.Init(cfg.Log.Path, cfg.Log.Level); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.Infof("Starting %s server", serverName)

	store, err := memory.Open(memory.Options{Backend: cfg.Store.Backend, Path: cfg.Store.Path})
	if err != nil {
		logger.Errorf("Failed to open memory store: %v", err)
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warnf("Failed to close memory store: %v", err)
		}
	}()
	logger.Infof("Opened %s memory store", cfg.Store.Backend)

	fetcher := web.NewFetcher(web.Options{
		MaxContentLength: cfg.Fetch.MaxContentLength,
		Timeout:          cfg.Fetch.Timeout,
		UserAgent:        cfg.Fetch.UserAgent,
	})
	logger.Infof("Initialized fetcher (max %d chars, timeout %s)", cfg.Fetch.MaxContentLength, cfg.Fetch.Timeout)

	mcpServer := tools.NewServer(serverName, serverVersion, store, fetcher)

	if stdio {
		logger.Infof("Starting MCP server on stdio")
		if err := server.ServeStdio(mcpServer); err != nil {
			logger.Errorf("server error: %v", err)
			return err
		}
		return nil
	}

	handler := api.NewRouter(api.NewHandler(store, fetcher), server.NewStreamableHTTPServer(mcpServer))
	return serveHTTP(ctx, cfg, handler)
}

// serveHTTP listens until SIGINT/SIGTERM, then drains in-flight requests for
// up to the configured shutdown timeout.
func serveHTTP(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server running on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Errorf("server error: %v", err)
		return err
	case <-ctx.Done():
	}

	logger.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
		return err
	}
	return nil
}
