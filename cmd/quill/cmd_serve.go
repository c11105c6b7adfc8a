package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	qserver "github.com/HendryAvila/quill/internal/server"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(load loader) *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio by default, streamable HTTP with --http)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			if httpAddr == "" {
				httpAddr = cfg.HTTPAddr
			}

			s, cleanup, err := qserver.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.ProfileSchedule != "" {
				rb := newRebuilder(cfg, logger, "", false)
				if err := rb.Schedule(ctx, cfg.ProfileSchedule); err != nil {
					return err
				}
			}

			if httpAddr != "" {
				return serveHTTP(ctx, s, httpAddr, logger)
			}
			// ServeStdio handles SIGINT/SIGTERM itself.
			return server.ServeStdio(s)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "listen address for streamable HTTP, e.g. 127.0.0.1:8787 (default from config)")
	return cmd
}

func serveHTTP(ctx context.Context, s *server.MCPServer, addr string, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           qserver.NewHTTPHandler(s, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "path", qserver.MCPPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
