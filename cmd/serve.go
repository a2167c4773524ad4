package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/arviewer/internal/assets"
	"github.com/lehigh-university-libraries/arviewer/internal/config"
	"github.com/lehigh-university-libraries/arviewer/internal/handlers"
	"github.com/lehigh-university-libraries/arviewer/internal/hints"
	"github.com/lehigh-university-libraries/arviewer/internal/images"
	"github.com/lehigh-university-libraries/arviewer/internal/imaging"
	"github.com/lehigh-university-libraries/arviewer/internal/observability"
	"github.com/lehigh-university-libraries/arviewer/internal/scene"
	"github.com/lehigh-university-libraries/arviewer/internal/session"
	"github.com/lehigh-university-libraries/arviewer/internal/storage"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the AR viewer web server",
		Long: `Starts the AR viewer on the specified port.

Static assets are served from --static. The slot and session API drives the
upload/AR screens, and /blob/{id} serves the files currently held in the slots.`,
		Example: `  # Start server on default port 3000
  arviewer serve

  # Serve on a custom port with the legacy upload route
  PORT=8080 arviewer serve --enable-upload

  # Remember file names across restarts
  arviewer serve --hints ~/.arviewer/hints.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			metrics, err := observability.NewCollector(prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			blobs := storage.New()
			store := assets.NewStore(blobs)
			compressor := imaging.NewCompressor(imaging.Options{
				MaxWidth:  cfg.MaxWidth,
				Quality:   cfg.Quality,
				Threshold: cfg.Threshold,
			})
			sess := session.New(ctx, session.Config{
				Validator:     assets.NewValidator(compressor),
				Store:         store,
				Engine:        scene.NewMarkupEngine(blobs, scene.DefaultOptions()),
				Hints:         hints.New(cfg.HintsPath),
				Metrics:       metrics,
				SettleDelay:   cfg.SettleDelay,
				ReleaseOnBack: cfg.ReleaseOnBack,
			})
			defer sess.Close()

			handler := handlers.New(handlers.Config{
				Session:      sess,
				Blobs:        blobs,
				Fetcher:      images.NewFetcher(),
				Metrics:      metrics,
				StaticDir:    cfg.StaticDir,
				UploadsDir:   cfg.UploadsDir,
				EnableUpload: cfg.EnableUpload,
			})

			server := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           handler.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				slog.Info("AR viewer available", "addr", server.Addr, "url", "http://localhost"+server.Addr, "env", cfg.Env, "upload", cfg.EnableUpload)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				// Wait for context cancellation (Ctrl+C) or server error
				<-gctx.Done()
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			})

			return g.Wait()
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}
