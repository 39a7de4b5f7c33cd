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

	"github.com/spf13/cobra"

	"github.com/boshu2/prmetrics/internal/server"
)

// shutdownTimeout bounds draining in-flight requests.
const shutdownTimeout = 15 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve metrics over HTTP",
	Long: `Start a stateless HTTP API that derives metrics from posted records.

Routes:
  GET  /healthz       liveness probe
  POST /v1/metrics    per pull request metrics
  POST /v1/report     summary tiles and rankings (?limit=N)

Both POST routes accept ?format=json|jsonl|yaml and reject the whole
request if any record is malformed.

Examples:
  prmetrics serve
  prmetrics serve --addr 127.0.0.1:9000
  PRMETRICS_LOG_FORMAT=text prmetrics serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cal, err := GetCalendar()
	if err != nil {
		return err
	}
	timeouts, err := cfg.Server.Timeouts()
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	// The server always logs at info; --verbose adds debug.
	level := slog.LevelInfo
	if GetVerbose() {
		level = slog.LevelDebug
	}
	srvLogger := newLogger(cmd.ErrOrStderr(), cfg.LogFormat, level)

	h := server.NewHandler(server.Options{
		Calendar:     cal,
		Workers:      GetWorkers(),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       srvLogger,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      h.Router(),
		ReadTimeout:  timeouts.Read,
		WriteTimeout: timeouts.Write,
		IdleTimeout:  timeouts.Idle,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		srvLogger.Info("server starting", "addr", addr, "timezone", cal.Location.String(), "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case sig := <-sigCh:
		srvLogger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	srvLogger.Info("server stopped")
	return nil
}
