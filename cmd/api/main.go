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

	"go.uber.org/zap"

	"github.com/ewilliams-labs/moodmix/internal/adapters/file"
	"github.com/ewilliams-labs/moodmix/internal/adapters/mongo"
	"github.com/ewilliams-labs/moodmix/internal/adapters/ollama"
	"github.com/ewilliams-labs/moodmix/internal/adapters/rest"
	"github.com/ewilliams-labs/moodmix/internal/adapters/spotify"
	"github.com/ewilliams-labs/moodmix/internal/adapters/sqlite"
	"github.com/ewilliams-labs/moodmix/internal/config"
	"github.com/ewilliams-labs/moodmix/internal/core/catalog"
	"github.com/ewilliams-labs/moodmix/internal/core/domain"
	"github.com/ewilliams-labs/moodmix/internal/core/ports"
	"github.com/ewilliams-labs/moodmix/internal/core/ranker"
	"github.com/ewilliams-labs/moodmix/internal/core/services"
	"github.com/ewilliams-labs/moodmix/internal/worker"
)

func main() {
	// 1. Configuration (Environment Variables)
	cfg, err := config.NewConfig()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	logger, err := cfg.Logger()
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize "Driven" Adapters (The Tools)
	// -- History database
	db, err := sqlite.NewAdapter(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.String("path", cfg.DatabasePath), zap.Error(err))
	}
	defer db.Close()

	// -- Catalog source
	source, closeSource := openCatalogSource(ctx, cfg, db, logger)
	defer closeSource()

	if cfg.CatalogSeedPath != "" {
		seedCatalog(ctx, source, cfg.CatalogSeedPath, logger)
	}

	store, err := catalog.Load(ctx, source, logger)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.String("source", cfg.CatalogSource), zap.Error(err))
	}
	logger.Info("catalog loaded", zap.String("source", cfg.CatalogSource), zap.Int("tracks", store.Current().Len()))

	if cfg.CatalogReloadInterval > 0 {
		go store.Watch(ctx, cfg.CatalogReloadInterval, source)
	}

	// -- History recorder
	pool := worker.NewPool(db, logger, cfg.HistoryWorkers, cfg.HistoryQueueSize)
	pool.Start()
	defer pool.Stop()

	// 3. Initialize Core Logic (The Driver)
	opts := []services.Option{
		services.WithMaxResults(cfg.MaxRecommendations),
		services.WithHistory(db, pool),
	}

	if cfg.SpotifyEnabled() {
		spotifyClient := spotify.NewClient(spotify.Config{
			ClientID:     cfg.SpotifyClientID,
			ClientSecret: cfg.SpotifyClientSecret,
			RedirectURL:  cfg.SpotifyRedirectURL,
		}, logger)
		opts = append(opts, services.WithLibrary(spotifyClient), services.WithAuthorizer(spotifyClient))
	} else {
		logger.Warn("spotify credentials not set; library endpoints disabled")
	}

	if cfg.ClassifierEnabled() {
		classifier := ollama.NewClient(ollama.Config{
			BaseURL: cfg.OllamaHost,
			Model:   cfg.OllamaModel,
			Timeout: cfg.ClassifierTimeout,
		}, logger)
		opts = append(opts, services.WithClassifier(classifier))
	} else {
		logger.Warn("OLLAMA_HOST not set; text recommendations disabled")
	}

	svc := services.NewRecommender(
		store,
		ranker.New(ranker.Options{MinRelevance: cfg.MinRelevance, MaxPerArtist: cfg.MaxPerArtist}),
		domain.NewNormalizer(domain.UnknownLabelPolicy(cfg.UnknownLabelPolicy)),
		logger,
		opts...,
	)

	// 4. Initialize "Driving" Adapter (The Interface)
	handler := rest.NewHandler(svc, rest.Options{
		DefaultRecommendations: cfg.DefaultRecommendations,
		MaxRecommendations:     cfg.MaxRecommendations,
		CORSAllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitRequests:      cfg.RateLimitRequests,
		RateLimitWindow:        cfg.RateLimitWindow,
		Reload: func(ctx context.Context) (int, error) {
			if err := store.Reload(ctx, source); err != nil {
				return 0, err
			}
			return store.Current().Len(), nil
		},
		Ready: func(ctx context.Context) error {
			if store.Current() == nil {
				return errors.New("catalog not loaded")
			}
			if err := db.Ping(ctx); err != nil {
				return fmt.Errorf("history database: %w", err)
			}
			if remote, ok := source.(*mongo.Source); ok {
				if err := remote.Ping(ctx); err != nil {
					return fmt.Errorf("catalog source: %w", err)
				}
			}
			return nil
		},
	}, logger)

	// 5. Start the Server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("moodmix api listening", zap.String("addr", cfg.HTTPAddr))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}
}

// openCatalogSource selects the configured catalog backend.
func openCatalogSource(ctx context.Context, cfg *config.Config, db *sqlite.Adapter, logger *zap.Logger) (ports.CatalogSource, func()) {
	switch cfg.CatalogSource {
	case config.CatalogSourceSQLite:
		return db, func() {}
	case config.CatalogSourceMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		src, err := mongo.NewSource(connectCtx, logger, cfg.MongoURL, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			logger.Fatal("failed to connect to mongo", zap.Error(err))
		}
		if err := src.Ping(connectCtx); err != nil {
			logger.Fatal("failed to ping mongo", zap.Error(err))
		}
		return src, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := src.Close(closeCtx); err != nil {
				logger.Warn("error disconnecting from mongo", zap.Error(err))
			}
		}
	default:
		return file.NewSource(cfg.CatalogPath), func() {}
	}
}

// seedCatalog imports a file catalog into a writable source before the first
// load.
func seedCatalog(ctx context.Context, source ports.CatalogSource, path string, logger *zap.Logger) {
	writer, ok := source.(ports.CatalogWriter)
	if !ok {
		logger.Fatal("catalog source does not accept seeding")
	}
	tracks, err := file.NewSource(path).LoadTracks(ctx)
	if err != nil {
		logger.Fatal("failed to read catalog seed", zap.String("path", path), zap.Error(err))
	}
	if err := writer.UpsertTracks(ctx, tracks); err != nil {
		logger.Fatal("failed to seed catalog", zap.String("path", path), zap.Error(err))
	}
	logger.Info("catalog seeded", zap.String("path", path), zap.Int("tracks", len(tracks)))
}
