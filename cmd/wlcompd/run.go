package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"deedles.dev/wlcomp/config"
	"deedles.dev/wlcomp/internal/debug"
	"deedles.dev/wlcomp/internal/metrics"
	"deedles.dev/wlcomp/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	var screenshots string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the compositor",
		Long: `Run the compositor until it is interrupted.

Sending SIGUSR1 writes a screenshot of the output into the screenshot
directory.`,
		Example: `  # Run with the defaults
  wlcompd run

  # Run with a config file and save screenshots to /tmp
  wlcompd run -c wlcomp.yaml --screenshots /tmp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			log := debug.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
			return run(cmd.Context(), cfg, log, screenshots)
		},
	}

	cmd.Flags().StringVar(&screenshots, "screenshots", os.TempDir(), "directory to write screenshots to")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, screenshots string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New(cfg.Metrics.Enabled)
	s := server.New(cfg, log, m)

	if cfg.Cursor.Theme != "" {
		err := s.LoadCursor()
		if err != nil {
			log.Warn().Err(err).Str("theme", cfg.Cursor.Theme).Msg("cursor theme not loaded")
		}
	}

	if cfg.Metrics.Enabled {
		srv := serveMetrics(cfg.Metrics.Addr, m, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	go screenshotOnSignal(ctx, s, screenshots, log)

	err := s.Run(ctx)
	if err != nil {
		return fmt.Errorf("run compositor: %w", err)
	}
	return nil
}

func serveMetrics(addr string, m *metrics.Metrics, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := srv.ListenAndServe()
		if (err != nil) && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")
	return &srv
}

func screenshotOnSignal(ctx context.Context, s *server.Server, dir string, log zerolog.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR1)
	defer signal.Stop(sig)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			path := filepath.Join(dir, fmt.Sprintf("wlcomp-%v.png", time.Now().Format("20060102-150405")))
			err := s.Do(func() {
				err := s.Screenshot(path, nil)
				if err != nil {
					log.Error().Err(err).Msg("screenshot not started")
				}
			})
			if err != nil {
				return
			}
		}
	}
}
