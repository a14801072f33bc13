package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"housingRadar/internal/domain/entity"
	"housingRadar/internal/domain/repository"

	_ "modernc.org/sqlite"
)

// sqliteCache persists the briefing state so analyses survive restarts.
// Entities are stored as JSON payloads; TTL checks happen on read.
type sqliteCache struct {
	db      *sql.DB
	newsTTL time.Duration
}

func NewSQLiteCacheRepository(dbPath string, newsTTL time.Duration) (repository.CacheRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	cache := &sqliteCache{db: db, newsTTL: newsTTL}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := cache.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return cache, nil
}

func (c *sqliteCache) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS news_cache (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payload TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS analyses (
			headline TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS strategy_cache (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			batch_key TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at)`,
	}

	for _, query := range queries {
		if _, err := c.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

func (c *sqliteCache) GetNews(ctx context.Context) ([]*entity.NewsItem, bool, error) {
	var payload string
	var fetchedAt int64
	err := c.db.QueryRowContext(
		ctx,
		"SELECT payload, fetched_at FROM news_cache WHERE id = 1",
	).Scan(&payload, &fetchedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached news: %w", err)
	}

	if time.Since(time.Unix(fetchedAt, 0)) > c.newsTTL {
		return nil, false, nil
	}

	var items []*entity.NewsItem
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached news: %w", err)
	}

	return items, true, nil
}

func (c *sqliteCache) SaveNews(ctx context.Context, items []*entity.NewsItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode news: %w", err)
	}

	_, err = c.db.ExecContext(
		ctx,
		`INSERT INTO news_cache (id, payload, fetched_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		string(payload),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save news: %w", err)
	}

	return nil
}

func (c *sqliteCache) GetAnalysis(ctx context.Context, headline string) (*entity.Analysis, bool, error) {
	var payload string
	err := c.db.QueryRowContext(
		ctx,
		"SELECT payload FROM analyses WHERE headline = ?",
		headline,
	).Scan(&payload)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached analysis: %w", err)
	}

	var analysis entity.Analysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached analysis: %w", err)
	}

	return &analysis, true, nil
}

func (c *sqliteCache) SaveAnalysis(ctx context.Context, analysis *entity.Analysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	_, err = c.db.ExecContext(
		ctx,
		`INSERT INTO analyses (headline, payload, created_at) VALUES (?, ?, ?)
		ON CONFLICT(headline) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		analysis.Headline,
		string(payload),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

func (c *sqliteCache) GetStrategy(ctx context.Context, batchKey string) (*entity.StrategyTable, bool, error) {
	var payload string
	err := c.db.QueryRowContext(
		ctx,
		"SELECT payload FROM strategy_cache WHERE id = 1 AND batch_key = ?",
		batchKey,
	).Scan(&payload)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached strategy: %w", err)
	}

	var table entity.StrategyTable
	if err := json.Unmarshal([]byte(payload), &table); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached strategy: %w", err)
	}

	return &table, true, nil
}

func (c *sqliteCache) SaveStrategy(ctx context.Context, batchKey string, table *entity.StrategyTable) error {
	payload, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode strategy: %w", err)
	}

	_, err = c.db.ExecContext(
		ctx,
		`INSERT INTO strategy_cache (id, batch_key, payload, created_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET batch_key = excluded.batch_key, payload = excluded.payload, created_at = excluded.created_at`,
		batchKey,
		string(payload),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save strategy: %w", err)
	}

	return nil
}

func (c *sqliteCache) Clear(ctx context.Context) error {
	for _, query := range []string{
		"DELETE FROM news_cache",
		"DELETE FROM analyses",
		"DELETE FROM strategy_cache",
	} {
		if _, err := c.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}
	return nil
}

func (c *sqliteCache) Close() error {
	return c.db.Close()
}

// CleanupOldAnalyses drops analysis rows for headlines that have aged out of
// the news feed, keeping the database from growing without bound.
func (c *sqliteCache) CleanupOldAnalyses(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	result, err := c.db.ExecContext(
		ctx,
		"DELETE FROM analyses WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old analyses: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
