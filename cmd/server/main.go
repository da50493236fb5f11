package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eddie-kann/astrokiddo/internal/ai"
	"github.com/eddie-kann/astrokiddo/internal/api"
	"github.com/eddie-kann/astrokiddo/internal/app"
	"github.com/eddie-kann/astrokiddo/internal/database"
	"github.com/eddie-kann/astrokiddo/internal/generator"
	"github.com/eddie-kann/astrokiddo/internal/nasa"
	"github.com/eddie-kann/astrokiddo/internal/services"
	"github.com/eddie-kann/astrokiddo/internal/storage"
	"github.com/eddie-kann/astrokiddo/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("astrokiddo-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	zone, err := cfg.App.Zone()
	if err != nil {
		return fmt.Errorf("resolve time zone: %w", err)
	}

	svcs, err := buildServices(ctx, cfg, db, zone, log)
	if err != nil {
		return err
	}

	scheduler, err := services.NewApodScheduler(svcs.Apod, cfg.NASA.Schedule, zone)
	if err != nil {
		return fmt.Errorf("initialise apod scheduler: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start apod scheduler: %w", err)
	}
	defer scheduler.Stop()

	router, err := api.NewRouter(db, cfg, svcs)
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var shutdownErrs error
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		shutdownErrs = multierr.Append(shutdownErrs, fmt.Errorf("graceful shutdown: %w", err))
	}
	if err, ok := <-serverErr; ok && err != nil {
		shutdownErrs = multierr.Append(shutdownErrs, fmt.Errorf("server error: %w", err))
	}
	if shutdownErrs != nil {
		return shutdownErrs
	}

	log.Info("server stopped gracefully")
	return nil
}

// buildServices wires the deck, APOD, and (when configured) TTS services with
// their upstream clients.
func buildServices(ctx context.Context, cfg *app.Config, db *gorm.DB, zone *time.Location, log *zap.Logger) (api.Services, error) {
	if strings.TrimSpace(cfg.Generator.URL) == "" {
		return api.Services{}, errors.New("generator.url must be configured")
	}

	gen, err := generator.NewClient(cfg.Generator.URL, cfg.Generator.Timeout)
	if err != nil {
		return api.Services{}, fmt.Errorf("initialise generator client: %w", err)
	}

	deckOpts := []services.DeckServiceOption{}
	if cfg.Decks.ValidityDays > 0 {
		deckOpts = append(deckOpts, services.WithValidity(time.Duration(cfg.Decks.ValidityDays)*24*time.Hour))
	}

	decks, err := services.NewDeckService(db, gen, deckOpts...)
	if err != nil {
		return api.Services{}, fmt.Errorf("initialise deck service: %w", err)
	}

	tts, err := buildTTSService(ctx, cfg, db, log)
	if err != nil {
		return api.Services{}, err
	}

	apiKey := strings.TrimSpace(cfg.NASA.APIKey)
	if apiKey == "" {
		log.Warn("nasa.api_key not configured; falling back to DEMO_KEY rate limits")
		apiKey = "DEMO_KEY"
	}

	apodClient, err := nasa.NewClient(cfg.NASA.BaseURL, apiKey)
	if err != nil {
		return api.Services{}, fmt.Errorf("initialise nasa client: %w", err)
	}

	apodOpts := []services.ApodServiceOption{services.WithApodZone(zone)}
	if cfg.NASA.MinDate != "" {
		minDate, err := time.Parse("2006-01-02", cfg.NASA.MinDate)
		if err != nil {
			return api.Services{}, fmt.Errorf("parse nasa.min_date: %w", err)
		}
		apodOpts = append(apodOpts, services.WithApodMinDate(minDate))
	}
	if tts != nil {
		apodOpts = append(apodOpts, services.WithApodNarration(tts, cfg.Cloudflare.Voice))
	}

	apod, err := services.NewApodService(db, apodClient, apodOpts...)
	if err != nil {
		return api.Services{}, fmt.Errorf("initialise apod service: %w", err)
	}

	return api.Services{Decks: decks, Apod: apod, TTS: tts}, nil
}

func buildTTSService(ctx context.Context, cfg *app.Config, db *gorm.DB, log *zap.Logger) (*services.TTSAudioService, error) {
	if !cfg.Cloudflare.Enabled {
		log.Info("tts disabled by configuration")
		return nil, nil
	}
	if !cfg.Cloudflare.TTSConfigured() || !cfg.Storage.Configured() {
		log.Warn("tts enabled but cloudflare or storage settings are incomplete; audio endpoints disabled")
		return nil, nil
	}

	synth, err := ai.NewTTSClient(ai.Config{
		AccountID: cfg.Cloudflare.AccountID,
		APIToken:  cfg.Cloudflare.APIToken,
		BaseURL:   cfg.Cloudflare.BaseURL,
		Provider:  cfg.Cloudflare.Provider,
		Vendor:    cfg.Cloudflare.Vendor,
		Model:     cfg.Cloudflare.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise tts client: %w", err)
	}

	objects, err := storage.NewR2Store(ctx, storage.Config{
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		Bucket:          cfg.Storage.Bucket,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise object store: %w", err)
	}

	tts, err := services.NewTTSAudioService(db, synth, objects)
	if err != nil {
		return nil, fmt.Errorf("initialise tts service: %w", err)
	}
	return tts, nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.Database.Connection())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("acquire database handle for close", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}
