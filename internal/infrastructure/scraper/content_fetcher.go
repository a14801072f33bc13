package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const (
	maxTextRunes = 4000
	minBodyRunes = 100
)

// ContentFetcher 從新聞頁面抓取報導本文，作為標題之外的分析素材
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

type articleScraper struct {
	client *resty.Client
}

// NewContentFetcher 建立新的 ContentFetcher
func NewContentFetcher(timeout time.Duration) ContentFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "HousingRadar/1.0")
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &articleScraper{client: client}
}

// FetchContent 取得並清理文章本文
func (s *articleScraper) FetchContent(ctx context.Context, url string) (string, error) {
	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("HTTP status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	content := extractMainContent(doc)
	if content == "" {
		return "", fmt.Errorf("no content found")
	}

	return truncate(content), nil
}

// extractMainContent tries the article selectors common on Taiwanese news
// sites before falling back to the whole body.
func extractMainContent(doc *goquery.Document) string {
	selectors := []string{
		"article",
		"main",
		"#story_body_content",
		".article-body",
		".article-content",
		".post-content",
		".entry-content",
		"#content",
		".content",
	}

	for _, selector := range selectors {
		selection := doc.Find(selector)
		if selection.Length() == 0 {
			continue
		}
		selection.Find("script, style, nav, header, footer, aside, .ad, .advertisement").Remove()
		cleaned := collapse(selection.Text())
		if len([]rune(cleaned)) >= minBodyRunes {
			return cleaned
		}
	}

	doc.Find("script, style, nav, header, footer, aside").Remove()
	return collapse(doc.Find("body").Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxTextRunes {
		return s
	}
	return string(runes[:maxTextRunes])
}
