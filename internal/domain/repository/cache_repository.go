package repository

import (
	"context"

	"housingRadar/internal/domain/entity"
)

// CacheRepository caches the fetched headline list (with TTL), per-headline
// analyses and the strategy table. The bool return reports a hit. The
// strategy table is keyed on its headline batch (entity.StrategyKey) so a
// table built from an expired batch is never served next to fresh cards.
type CacheRepository interface {
	GetNews(ctx context.Context) ([]*entity.NewsItem, bool, error)
	SaveNews(ctx context.Context, items []*entity.NewsItem) error

	GetAnalysis(ctx context.Context, headline string) (*entity.Analysis, bool, error)
	SaveAnalysis(ctx context.Context, analysis *entity.Analysis) error

	GetStrategy(ctx context.Context, batchKey string) (*entity.StrategyTable, bool, error)
	SaveStrategy(ctx context.Context, batchKey string, table *entity.StrategyTable) error

	// Clear drops everything so the next briefing refetches and re-analyzes.
	Clear(ctx context.Context) error
}
