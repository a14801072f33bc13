package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"housingRadar/internal/domain/entity"
	"housingRadar/internal/domain/repository"
	"housingRadar/internal/infrastructure/scraper"

	"github.com/rs/zerolog/log"
)

// analysisFailedPrefix leads the diagnostic text shown inside a card when
// every model in the chain failed.
const analysisFailedPrefix = "⚠️ 分析失敗"

// minContentLength: RSS descriptions shorter than this trigger the article
// scrape (when enabled) so the model gets more than a bare headline.
const minContentLength = 100

type BriefingService struct {
	feedRepo        repository.FeedRepository
	analyzerRepo    repository.AnalyzerRepository
	cacheRepo       repository.CacheRepository
	contentFetcher  scraper.ContentFetcher
	feedURL         string
	limit           int
	strategyEnabled bool
}

type Options struct {
	FeedURL         string
	Limit           int
	StrategyEnabled bool
	// ContentFetcher is optional; nil disables article scraping.
	ContentFetcher scraper.ContentFetcher
}

func NewBriefingService(
	feedRepo repository.FeedRepository,
	analyzerRepo repository.AnalyzerRepository,
	cacheRepo repository.CacheRepository,
	opts Options,
) *BriefingService {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	return &BriefingService{
		feedRepo:        feedRepo,
		analyzerRepo:    analyzerRepo,
		cacheRepo:       cacheRepo,
		contentFetcher:  opts.ContentFetcher,
		feedURL:         opts.FeedURL,
		limit:           limit,
		strategyEnabled: opts.StrategyEnabled,
	}
}

// Briefing assembles the dashboard: headlines (cached with TTL), one
// analysis per headline (cached per title) and the optional strategy table.
// A failed analysis never fails the whole briefing; the card carries the
// diagnostic text instead.
func (s *BriefingService) Briefing(ctx context.Context) (*entity.Briefing, error) {
	items, err := s.headlines(ctx)
	if err != nil {
		return nil, err
	}

	briefing := &entity.Briefing{
		Cards:       make([]*entity.Card, 0, len(items)),
		GeneratedAt: time.Now(),
	}

	for _, item := range items {
		briefing.Cards = append(briefing.Cards, s.buildCard(ctx, item))
	}

	if s.strategyEnabled && s.analyzerRepo.IsEnabled() {
		briefing.Strategy = s.strategyTable(ctx, items)
	}

	return briefing, nil
}

// Refresh drops every cache and rebuilds the briefing from scratch.
func (s *BriefingService) Refresh(ctx context.Context) (*entity.Briefing, error) {
	if err := s.cacheRepo.Clear(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear cache: %w", err)
	}
	log.Info().Msg("cache cleared, rebuilding briefing")
	return s.Briefing(ctx)
}

func (s *BriefingService) headlines(ctx context.Context) ([]*entity.NewsItem, error) {
	if items, ok, err := s.cacheRepo.GetNews(ctx); err != nil {
		return nil, fmt.Errorf("failed to read news cache: %w", err)
	} else if ok {
		return items, nil
	}

	items, err := s.feedRepo.Fetch(ctx, s.feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news feed: %w", err)
	}

	sortNewestFirst(items)
	if len(items) > s.limit {
		items = items[:s.limit]
	}

	if err := s.cacheRepo.SaveNews(ctx, items); err != nil {
		log.Warn().Err(err).Msg("failed to cache news")
	}

	log.Info().Int("count", len(items)).Msg("fetched news feed")
	return items, nil
}

func (s *BriefingService) buildCard(ctx context.Context, item *entity.NewsItem) *entity.Card {
	card := &entity.Card{News: item}

	if !s.analyzerRepo.IsEnabled() {
		card.AnalysisErr = "無法分析 (缺少 API Key)"
		return card
	}

	if cached, ok, err := s.cacheRepo.GetAnalysis(ctx, item.Title); err != nil {
		log.Warn().Err(err).Str("title", item.Title).Msg("failed to read analysis cache")
	} else if ok {
		card.Analysis = cached
		return card
	}

	analysis, err := s.analyzerRepo.Analyze(ctx, item.Title, s.analysisContent(ctx, item))
	if err != nil {
		log.Error().Err(err).Str("title", item.Title).Msg("analysis failed")
		card.AnalysisErr = fmt.Sprintf("%s\n%v", analysisFailedPrefix, err)
		return card
	}

	card.Analysis = analysis
	if err := s.cacheRepo.SaveAnalysis(ctx, analysis); err != nil {
		log.Warn().Err(err).Str("title", item.Title).Msg("failed to cache analysis")
	}

	return card
}

// analysisContent starts from the RSS description and scrapes the linked
// page only when the description is too short to be useful. Google News
// links are redirect stubs, so scrape failures are routine and the
// description (or bare headline) is used instead.
func (s *BriefingService) analysisContent(ctx context.Context, item *entity.NewsItem) string {
	content := item.Description

	if s.contentFetcher != nil && len(content) < minContentLength {
		fetched, err := s.contentFetcher.FetchContent(ctx, item.Link)
		if err != nil {
			log.Debug().Err(err).Str("link", item.Link).Msg("article scrape failed")
		} else {
			content = fetched
		}
	}

	return content
}

func (s *BriefingService) strategyTable(ctx context.Context, items []*entity.NewsItem) *entity.StrategyTable {
	if len(items) == 0 {
		return nil
	}

	headlines := make([]string, 0, len(items))
	for _, item := range items {
		headlines = append(headlines, item.Title)
	}

	// Keying on the batch invalidates the table whenever the headline list
	// changes, so a fresh fetch never renders next to yesterday's strategy.
	batchKey := entity.StrategyKey(headlines)
	if cached, ok, err := s.cacheRepo.GetStrategy(ctx, batchKey); err != nil {
		log.Warn().Err(err).Msg("failed to read strategy cache")
	} else if ok {
		return cached
	}

	table, err := s.analyzerRepo.Strategize(ctx, headlines)
	if err != nil {
		log.Error().Err(err).Msg("strategy generation failed")
		return nil
	}
	if table == nil || len(table.Rows) == 0 {
		return nil
	}

	if err := s.cacheRepo.SaveStrategy(ctx, batchKey, table); err != nil {
		log.Warn().Err(err).Msg("failed to cache strategy")
	}

	return table
}

// sortNewestFirst orders by publish time descending; entries without a
// publish time sort last, matching the "最新" placeholder rendering.
func sortNewestFirst(items []*entity.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].IsNewerThan(items[j])
	})
}
