package storage

import (
	"context"
	"sync"
	"time"

	"housingRadar/internal/domain/entity"
	"housingRadar/internal/domain/repository"
)

// memoryCache keeps the briefing state in process memory. The news list
// expires after newsTTL; analyses live until Clear; the strategy table is
// bound to the batch key it was saved under.
type memoryCache struct {
	mu          sync.RWMutex
	newsTTL     time.Duration
	news        []*entity.NewsItem
	fetchedAt   time.Time
	analyses    map[string]*entity.Analysis
	strategy    *entity.StrategyTable
	strategyKey string
}

func NewMemoryCacheRepository(newsTTL time.Duration) repository.CacheRepository {
	return &memoryCache{
		newsTTL:  newsTTL,
		analyses: make(map[string]*entity.Analysis),
	}
}

func (c *memoryCache) GetNews(ctx context.Context) ([]*entity.NewsItem, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.news == nil || time.Since(c.fetchedAt) > c.newsTTL {
		return nil, false, nil
	}
	return c.news, true, nil
}

func (c *memoryCache) SaveNews(ctx context.Context, items []*entity.NewsItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.news = items
	c.fetchedAt = time.Now()
	return nil
}

func (c *memoryCache) GetAnalysis(ctx context.Context, headline string) (*entity.Analysis, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	a, ok := c.analyses[headline]
	return a, ok, nil
}

func (c *memoryCache) SaveAnalysis(ctx context.Context, analysis *entity.Analysis) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.analyses[analysis.Headline] = analysis
	return nil
}

func (c *memoryCache) GetStrategy(ctx context.Context, batchKey string) (*entity.StrategyTable, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.strategy == nil || c.strategyKey != batchKey {
		return nil, false, nil
	}
	return c.strategy, true, nil
}

func (c *memoryCache) SaveStrategy(ctx context.Context, batchKey string, table *entity.StrategyTable) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.strategy = table
	c.strategyKey = batchKey
	return nil
}

func (c *memoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.news = nil
	c.fetchedAt = time.Time{}
	c.analyses = make(map[string]*entity.Analysis)
	c.strategy = nil
	c.strategyKey = ""
	return nil
}
