package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"housingRadar/internal/application"
	"housingRadar/internal/domain/entity"
	"housingRadar/internal/infrastructure/storage"
)

type stubFeedRepo struct {
	items      []*entity.NewsItem
	err        error
	fetchCount int
}

func (s *stubFeedRepo) Fetch(ctx context.Context, url string) ([]*entity.NewsItem, error) {
	s.fetchCount++
	return s.items, s.err
}

type stubAnalyzer struct{}

func (s *stubAnalyzer) Analyze(ctx context.Context, headline, content string) (*entity.Analysis, error) {
	return entity.NewAnalysis(headline, "【產業觀點】市場轉冷。\n【受眾畫像】首購族。", "gemini-2.0-flash", false), nil
}

func (s *stubAnalyzer) Strategize(ctx context.Context, headlines []string) (*entity.StrategyTable, error) {
	rows := make([]entity.StrategyRow, 0, len(headlines))
	for i, h := range headlines {
		rows = append(rows, entity.StrategyRow{Index: i + 1, Headline: h, Angle: "主打進場時機", Audience: "首購族"})
	}
	return &entity.StrategyTable{Rows: rows, Model: "gemini-2.0-flash"}, nil
}

func (s *stubAnalyzer) IsEnabled() bool { return true }

func newTestServer(feed *stubFeedRepo, strategyEnabled bool) *Server {
	service := application.NewBriefingService(
		feed,
		&stubAnalyzer{},
		storage.NewMemoryCacheRepository(time.Hour),
		application.Options{FeedURL: "https://feed", StrategyEnabled: strategyEnabled},
	)
	return NewServer(service, ":0")
}

func sampleNews() []*entity.NewsItem {
	return []*entity.NewsItem{
		{
			Title:     "北市房價連三月上漲",
			Source:    "經濟日報",
			Link:      "https://example.com/1",
			GUID:      "g1",
			Published: time.Date(2024, 3, 5, 9, 30, 0, 0, time.Local),
		},
	}
}

func TestDashboard_RendersCards(t *testing.T) {
	server := newTestServer(&stubFeedRepo{items: sampleNews()}, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"六都房市 AI 戰情室",
		"news-card",
		"北市房價連三月上漲",
		"經濟日報",
		"03/05 09:30",
		"AI 智能解析",
		"市場轉冷",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

func TestDashboard_StrategyTable(t *testing.T) {
	server := newTestServer(&stubFeedRepo{items: sampleNews()}, true)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "strategy-table") || !strings.Contains(body, "主打進場時機") {
		t.Error("expected strategy table in page")
	}
}

func TestDashboard_FeedFailure(t *testing.T) {
	server := newTestServer(&stubFeedRepo{err: fmt.Errorf("connection refused")}, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "系統發生錯誤") {
		t.Error("expected error page text")
	}
}

func TestGetBriefing_JSON(t *testing.T) {
	server := newTestServer(&stubFeedRepo{items: sampleNews()}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/briefing", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var briefing entity.Briefing
	if err := json.NewDecoder(rec.Body).Decode(&briefing); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(briefing.Cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(briefing.Cards))
	}
	card := briefing.Cards[0]
	if card.News.Title != "北市房價連三月上漲" {
		t.Errorf("unexpected title: %q", card.News.Title)
	}
	if card.Analysis == nil || card.Analysis.IndustryView != "市場轉冷。" {
		t.Errorf("unexpected analysis: %+v", card.Analysis)
	}
}

func TestRefresh_ClearsCache(t *testing.T) {
	feed := &stubFeedRepo{items: sampleNews()}
	server := newTestServer(feed, false)

	get := httptest.NewRequest(http.MethodGet, "/api/briefing", nil)
	server.Router().ServeHTTP(httptest.NewRecorder(), get)
	get = httptest.NewRequest(http.MethodGet, "/api/briefing", nil)
	server.Router().ServeHTTP(httptest.NewRecorder(), get)

	if feed.fetchCount != 1 {
		t.Fatalf("expected cached second read, got %d fetches", feed.fetchCount)
	}

	post := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, post)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if feed.fetchCount != 2 {
		t.Errorf("expected refetch after refresh, got %d fetches", feed.fetchCount)
	}
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(&stubFeedRepo{}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
