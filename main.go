package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"housingRadar/internal/application"
	"housingRadar/internal/domain/repository"
	"housingRadar/internal/infrastructure/llm"
	"housingRadar/internal/infrastructure/rss"
	"housingRadar/internal/infrastructure/scraper"
	"housingRadar/internal/infrastructure/storage"
	"housingRadar/internal/infrastructure/web"
	"housingRadar/internal/interfaces/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feedURL := rss.BuildSearchURL(rss.SearchOptions{
		Keywords: cfg.NewsKeywords,
		Cities:   cfg.NewsCities,
		Window:   cfg.NewsWindow,
		Language: cfg.NewsLang,
		Country:  cfg.NewsCountry,
	})
	log.Info().Str("url", feedURL).Msg("news feed configured")

	feedRepo := rss.NewFeedRepository()
	cacheRepo := newCacheRepository(cfg)

	analyzerRepo, err := llm.NewAnalyzerRepository(ctx, llm.Config{
		Provider:       cfg.LLMProvider,
		APIKey:         cfg.GeminiAPIKey,
		Models:         cfg.LLMModels,
		MaxTokens:      cfg.LLMMaxTokens,
		Timeout:        cfg.GetLLMTimeout(),
		MaxAttempts:    cfg.LLMMaxAttempts,
		RetryDelay:     cfg.GetLLMRetryDelay(),
		Region:         cfg.LLMRegion,
		BaseURL:        cfg.LLMBaseURL,
		MaxPermits:     cfg.MaxPermits,
		RefillInterval: cfg.GetRefillInterval(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("analyzer initialization failed, continuing without analysis")
		analyzerRepo, _ = llm.NewAnalyzerRepository(ctx, llm.Config{Provider: "noop"})
	}

	var contentFetcher scraper.ContentFetcher
	if cfg.ScrapeEnabled {
		contentFetcher = scraper.NewContentFetcher(cfg.GetScrapeTimeout())
	}

	service := application.NewBriefingService(feedRepo, analyzerRepo, cacheRepo, application.Options{
		FeedURL:         feedURL,
		Limit:           cfg.NewsLimit,
		StrategyEnabled: cfg.StrategyEnabled,
		ContentFetcher:  contentFetcher,
	})

	server := web.NewServer(service, cfg.HTTPAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if interval := cfg.GetRefreshInterval(); interval > 0 {
		go warmLoop(ctx, service, cacheRepo, interval)
	}

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("shut down")
}

// staleAnalysisAge bounds how long an analysis outlives its headline in the
// persistent cache.
const staleAnalysisAge = 24 * time.Hour

// analysisCleaner is implemented by the sqlite cache; the memory cache
// rebuilds from scratch and has nothing to clean.
type analysisCleaner interface {
	CleanupOldAnalyses(ctx context.Context, olderThan time.Duration) (int64, error)
}

// warmLoop rebuilds the briefing in the background so page loads hit a warm
// cache instead of waiting on the model, and prunes aged-out analysis rows.
func warmLoop(ctx context.Context, service *application.BriefingService, cacheRepo repository.CacheRepository, interval time.Duration) {
	log.Info().Dur("interval", interval).Msg("background refresh enabled")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := service.Briefing(ctx); err != nil {
		log.Error().Err(err).Msg("initial briefing build failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := service.Briefing(ctx); err != nil {
				log.Error().Err(err).Msg("background briefing build failed")
			}
			if cleaner, ok := cacheRepo.(analysisCleaner); ok {
				if deleted, err := cleaner.CleanupOldAnalyses(ctx, staleAnalysisAge); err != nil {
					log.Warn().Err(err).Msg("analysis cleanup failed")
				} else if deleted > 0 {
					log.Info().Int64("deleted", deleted).Msg("pruned stale analyses")
				}
			}
		}
	}
}

func newCacheRepository(cfg *config.Config) repository.CacheRepository {
	if cfg.CachePath == "" {
		return storage.NewMemoryCacheRepository(cfg.GetNewsTTL())
	}

	cacheRepo, err := storage.NewSQLiteCacheRepository(cfg.CachePath, cfg.GetNewsTTL())
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.CachePath).Msg("sqlite cache unavailable, using memory cache")
		return storage.NewMemoryCacheRepository(cfg.GetNewsTTL())
	}
	return cacheRepo
}
