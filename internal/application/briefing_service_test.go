package application

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"housingRadar/internal/domain/entity"
	"housingRadar/internal/infrastructure/storage"
)

type fakeFeedRepo struct {
	items      []*entity.NewsItem
	err        error
	fetchCount int
}

func (f *fakeFeedRepo) Fetch(ctx context.Context, url string) ([]*entity.NewsItem, error) {
	f.fetchCount++
	return f.items, f.err
}

type fakeAnalyzer struct {
	enabled         bool
	analyzeErr      error
	strategyErr     error
	analyzeCount    int
	strategizeCount int
	contents        []string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, headline, content string) (*entity.Analysis, error) {
	f.analyzeCount++
	f.contents = append(f.contents, content)
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return &entity.Analysis{Headline: headline, Raw: "分析：" + headline, Model: "fake-model"}, nil
}

func (f *fakeAnalyzer) Strategize(ctx context.Context, headlines []string) (*entity.StrategyTable, error) {
	f.strategizeCount++
	if f.strategyErr != nil {
		return nil, f.strategyErr
	}
	rows := make([]entity.StrategyRow, 0, len(headlines))
	for i, h := range headlines {
		rows = append(rows, entity.StrategyRow{Index: i + 1, Headline: h, Angle: "切角"})
	}
	return &entity.StrategyTable{Rows: rows, Model: "fake-model"}, nil
}

func (f *fakeAnalyzer) IsEnabled() bool {
	return f.enabled
}

func newsFixture(n int) []*entity.NewsItem {
	items := make([]*entity.NewsItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, &entity.NewsItem{
			Title:     fmt.Sprintf("頭條%d", i+1),
			Source:    "經濟日報",
			Link:      fmt.Sprintf("https://example.com/%d", i+1),
			GUID:      fmt.Sprintf("g%d", i+1),
			Published: time.Now().Add(-time.Duration(i) * time.Hour),
		})
	}
	return items
}

func newTestService(feed *fakeFeedRepo, analyzer *fakeAnalyzer, opts Options) *BriefingService {
	return NewBriefingService(feed, analyzer, storage.NewMemoryCacheRepository(time.Hour), opts)
}

func TestBriefingService_BuildsCards(t *testing.T) {
	feed := &fakeFeedRepo{items: newsFixture(3)}
	analyzer := &fakeAnalyzer{enabled: true}
	service := newTestService(feed, analyzer, Options{FeedURL: "https://feed"})

	briefing, err := service.Briefing(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(briefing.Cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(briefing.Cards))
	}
	for _, card := range briefing.Cards {
		if card.Analysis == nil {
			t.Errorf("expected analysis for %q", card.News.Title)
		}
		if card.AnalysisErr != "" {
			t.Errorf("unexpected analysis error for %q: %s", card.News.Title, card.AnalysisErr)
		}
	}
	if briefing.Strategy != nil {
		t.Error("strategy table must be absent when disabled")
	}
}

func TestBriefingService_LimitApplied(t *testing.T) {
	feed := &fakeFeedRepo{items: newsFixture(15)}
	analyzer := &fakeAnalyzer{enabled: true}
	service := newTestService(feed, analyzer, Options{FeedURL: "https://feed", Limit: 10})

	briefing, err := service.Briefing(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(briefing.Cards) != 10 {
		t.Errorf("expected 10 cards, got %d", len(briefing.Cards))
	}
}

func TestBriefingService_CachesBetweenCalls(t *testing.T) {
	feed := &fakeFeedRepo{items: newsFixture(2)}
	analyzer := &fakeAnalyzer{enabled: true}
	service := newTestService(feed, analyzer, Options{FeedURL: "https://feed"})

	ctx := context.Background()
	if _, err := service.Briefing(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.Briefing(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if feed.fetchCount != 1 {
		t.Errorf("expected a single feed fetch, got %d", feed.fetchCount)
	}
	if analyzer.analyzeCount != 2 {
		t.Errorf("expected one analysis per headline, got %d", analyzer.analyzeCount)
	}
}

func TestBriefingService_RefreshClearsCaches(t *testing.T) {
	feed := &fakeFeedRepo{items: newsFixture(2)}
	analyzer := &fakeAnalyzer{enabled: true}
	service := newTestService(feed, analyzer, Options{FeedURL: "https://feed"})

	ctx := context.Background()
	if _, err := service.Briefing(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if feed.fetchCount != 2 {
		t.Errorf("expected refetch after refresh, got %d fetches", feed.fetchCount)
	}
	if analyzer.analyzeCount != 4 {
		t.Errorf("expected re-analysis after refresh, got %d calls", analyzer.analyzeCount)
	}
}

func TestBriefingService_AnalyzerFailureKeepsCard(t *testing.T) {
	feed := &fakeFeedRepo{items: newsFixture(1)}
	analyzer := &fakeAnalyzer{enabled: true, analyzeErr: fmt.Errorf("all models failed: quota")}
	service := newTestService(feed, analyzer, Options{FeedURL: "https://feed"})

	briefing, err := service.Briefing(context.Background())
	if err != nil {
		t.Fatalf("expected briefing despite analyzer failure, got: %v", err)
	}

	card := briefing.Cards[0]
	if card.Analysis != nil {
		t.Error("expected no analysis on failed card")
	}
	if !strings.Contains(card.AnalysisErr, analysisFailedPrefix) || !strings.Contains(card.AnalysisErr, "quota") {
		t.Errorf("expected diagnostic text, got %q", card.AnalysisErr)
	}
}

func TestBriefingService_DisabledAnalyzer(t *testing.T) {
	feed := &fakeFeedRepo{items: newsFixture(1)}
	analyzer := &fakeAnalyzer{enabled: false}
	service := newTestService(feed, analyzer, Options{FeedURL: "https://feed"})

	briefing, err := service.Briefing(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := briefing.Cards[0].AnalysisErr; got != "無法分析 (缺少 API Key)" {
		t.Errorf("expected missing-key message, got %q", got)
	}
	if analyzer.analyzeCount != 0 {
		t.Errorf("analyzer must not be called when disabled, got %d calls", analyzer.analyzeCount)
	}
}

func TestBriefingService_FeedFailure(t *testing.T) {
	feed := &fakeFeedRepo{err: fmt.Errorf("connection refused")}
	analyzer := &fakeAnalyzer{enabled: true}
	service := newTestService(feed, analyzer, Options{FeedURL: "https://feed"})

	_, err := service.Briefing(context.Background())
	if err == nil {
		t.Fatal("expected error when the feed is unreachable")
	}
}

func TestBriefingService_StrategyTable(t *testing.T) {
	feed := &fakeFeedRepo{items: newsFixture(2)}
	analyzer := &fakeAnalyzer{enabled: true}
	service := newTestService(feed, analyzer, Options{FeedURL: "https://feed", StrategyEnabled: true})

	briefing, err := service.Briefing(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if briefing.Strategy == nil {
		t.Fatal("expected strategy table")
	}
	if len(briefing.Strategy.Rows) != 2 {
		t.Errorf("expected 2 strategy rows, got %d", len(briefing.Strategy.Rows))
	}
}

func TestBriefingService_StrategyFailureOmitsTable(t *testing.T) {
	feed := &fakeFeedRepo{items: newsFixture(2)}
	analyzer := &fakeAnalyzer{enabled: true, strategyErr: fmt.Errorf("model refused")}
	service := newTestService(feed, analyzer, Options{FeedURL: "https://feed", StrategyEnabled: true})

	briefing, err := service.Briefing(context.Background())
	if err != nil {
		t.Fatalf("expected briefing despite strategy failure, got: %v", err)
	}
	if briefing.Strategy != nil {
		t.Error("expected strategy table omitted on failure")
	}
}

func TestBriefingService_StrategyRebuiltAfterFeedRollover(t *testing.T) {
	feed := &fakeFeedRepo{items: []*entity.NewsItem{{Title: "舊聞標題", Published: time.Now()}}}
	analyzer := &fakeAnalyzer{enabled: true}
	cache := storage.NewMemoryCacheRepository(30 * time.Millisecond)
	service := NewBriefingService(feed, analyzer, cache, Options{FeedURL: "https://feed", StrategyEnabled: true})

	ctx := context.Background()
	first, err := service.Briefing(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Strategy == nil || first.Strategy.Rows[0].Headline != "舊聞標題" {
		t.Fatalf("unexpected first strategy: %+v", first.Strategy)
	}

	// Same batch inside the TTL reuses the cached table.
	if _, err := service.Briefing(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analyzer.strategizeCount != 1 {
		t.Errorf("expected cached strategy for the same batch, got %d calls", analyzer.strategizeCount)
	}

	// After the news TTL rolls over to a fresh batch, the table must be
	// rebuilt instead of listing the previous batch's headlines.
	feed.items = []*entity.NewsItem{{Title: "新聞標題", Published: time.Now()}}
	time.Sleep(60 * time.Millisecond)

	second, err := service.Briefing(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Strategy == nil {
		t.Fatal("expected strategy table for the fresh batch")
	}
	if got := second.Strategy.Rows[0].Headline; got != "新聞標題" {
		t.Errorf("strategy table serves stale headline %q next to fresh cards", got)
	}
	if analyzer.strategizeCount != 2 {
		t.Errorf("expected strategy rebuilt for the new batch, got %d calls", analyzer.strategizeCount)
	}
}

type fakeFetcher struct {
	content    string
	fetchCount int
}

func (f *fakeFetcher) FetchContent(ctx context.Context, url string) (string, error) {
	f.fetchCount++
	return f.content, nil
}

func TestBriefingService_DescriptionUsedAsContent(t *testing.T) {
	feed := &fakeFeedRepo{items: []*entity.NewsItem{{Title: "頭條", Description: "央行召開理監事會議，市場預期信用管制措施將延續。"}}}
	analyzer := &fakeAnalyzer{enabled: true}
	service := newTestService(feed, analyzer, Options{FeedURL: "https://feed"})

	if _, err := service.Briefing(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(analyzer.contents) != 1 || analyzer.contents[0] != "央行召開理監事會議，市場預期信用管制措施將延續。" {
		t.Errorf("expected RSS description passed as content, got %q", analyzer.contents)
	}
}

func TestBriefingService_ScrapesOnlyShortDescriptions(t *testing.T) {
	longDescription := strings.Repeat("預售屋市場描述內容。", 10)
	feed := &fakeFeedRepo{items: []*entity.NewsItem{
		{Title: "描述充足", Description: longDescription, Published: time.Now()},
		{Title: "描述過短", Description: "短", Published: time.Now().Add(-time.Hour)},
	}}
	analyzer := &fakeAnalyzer{enabled: true}
	fetcher := &fakeFetcher{content: strings.Repeat("爬回來的全文。", 20)}
	service := NewBriefingService(feed, analyzer, storage.NewMemoryCacheRepository(time.Hour), Options{
		FeedURL:        "https://feed",
		ContentFetcher: fetcher,
	})

	if _, err := service.Briefing(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fetcher.fetchCount != 1 {
		t.Errorf("expected a single scrape for the short description, got %d", fetcher.fetchCount)
	}
	if len(analyzer.contents) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(analyzer.contents))
	}
	if analyzer.contents[0] != longDescription {
		t.Errorf("expected long description used directly, got %q", analyzer.contents[0])
	}
	if analyzer.contents[1] != fetcher.content {
		t.Errorf("expected scraped content for the short description, got %q", analyzer.contents[1])
	}
}

func TestSortNewestFirst_ZeroTimeLast(t *testing.T) {
	items := []*entity.NewsItem{
		{Title: "沒有時間"},
		{Title: "較舊", Published: time.Now().Add(-2 * time.Hour)},
		{Title: "最新", Published: time.Now()},
	}

	sortNewestFirst(items)

	if items[0].Title != "最新" {
		t.Errorf("expected newest first, got %q", items[0].Title)
	}
	if items[2].Title != "沒有時間" {
		t.Errorf("expected zero-time entry last, got %q", items[2].Title)
	}
}
