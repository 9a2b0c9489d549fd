package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/health-assistant/cmd/health-assistant/questionnaire"
	"github.com/terra-clan/health-assistant/internal/analysis"
	"github.com/terra-clan/health-assistant/internal/api"
	"github.com/terra-clan/health-assistant/internal/appointments"
	"github.com/terra-clan/health-assistant/internal/assessment"
	"github.com/terra-clan/health-assistant/internal/catalog"
	"github.com/terra-clan/health-assistant/internal/cleanup"
	"github.com/terra-clan/health-assistant/internal/config"
	"github.com/terra-clan/health-assistant/internal/models"
	"github.com/terra-clan/health-assistant/internal/storage"
	"github.com/terra-clan/health-assistant/internal/voice"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "health-assistant",
		Short: "Health assessment and appointment service",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(assessCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func assessCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Run a questionnaire in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			k := models.AssessmentKind(kind)
			if k != models.KindVitals && k != models.KindIssues {
				return fmt.Errorf("unsupported kind %q: use vitals or issues", kind)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			loader, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			manager := assessment.NewManager(loader, newAnalyzer(cfg), cfg.Sessions.TTL)
			defer manager.Close()

			return questionnaire.Run(cmd.Context(), manager, k, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(models.KindVitals), "questionnaire to run: vitals or issues")
	return cmd
}

func loadCatalog(cfg *config.Config) (*catalog.Loader, error) {
	loader, err := catalog.NewLoader()
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in catalog: %w", err)
	}

	if cfg.Catalog.Dir != "" {
		if err := loader.LoadFromDir(cfg.Catalog.Dir); err != nil {
			slog.Warn("failed to load catalog from dir", "dir", cfg.Catalog.Dir, "error", err)
		}
	}
	return loader, nil
}

func newAnalyzer(cfg *config.Config) analysis.Analyzer {
	return analysis.NewHTTPAnalyzer(cfg.Analysis.Endpoint, cfg.Analysis.APIKey, cfg.Analysis.Timeout)
}

func runServer() error {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}

	slog.Info("starting health-assistant",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	loader, err := loadCatalog(cfg)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		return err
	}

	analyzer := newAnalyzer(cfg)

	var transcriber voice.Transcriber = voice.Unavailable{}
	if cfg.Voice.Enabled() {
		transcriber = voice.NewWhisperClient(cfg.Voice.Endpoint, cfg.Voice.Timeout)
	} else {
		slog.Info("voice input disabled")
	}

	manager := assessment.NewManager(loader, analyzer, cfg.Sessions.TTL)
	bookings := appointments.NewService(loader, storage.NewMemoryRepository[*models.Booking]())

	cleaner := cleanup.NewCleaner(manager, cfg.Sessions.CleanupInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleaner.Start(ctx)

	server := api.NewServer(cfg, api.Services{
		Sessions:     manager,
		Catalog:      loader,
		Appointments: bookings,
		Analyzer:     analyzer,
		Transcriber:  transcriber,
	})
	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     server.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		slog.Error("HTTP server error", "error", err)
		return err
	}

	slog.Info("shutting down gracefully...")

	// Stop background workers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Cancels pending analyses
	if err := manager.Close(); err != nil {
		slog.Error("manager close error", "error", err)
	}

	slog.Info("health-assistant stopped")
	return nil
}
