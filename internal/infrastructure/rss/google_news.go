package rss

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"housingRadar/internal/domain/entity"
	"housingRadar/internal/domain/repository"

	"github.com/mmcdole/gofeed"
)

const defaultBaseURL = "https://news.google.com/rss/search"

// SearchOptions describes a Google News RSS search. Keywords and Cities are
// each OR-joined, then AND-combined; Window becomes a "when:" freshness
// qualifier (e.g. "1d").
type SearchOptions struct {
	BaseURL  string
	Keywords []string
	Cities   []string
	Window   string
	Language string
	Country  string
}

// BuildSearchURL assembles the feed URL. Query escaping turns the spaces in
// the boolean expression into the "+" form Google News expects.
func BuildSearchURL(opts SearchOptions) string {
	base := opts.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	var parts []string
	if g := orGroup(opts.Keywords); g != "" {
		parts = append(parts, g)
	}
	if g := orGroup(opts.Cities); g != "" {
		parts = append(parts, g)
	}
	query := strings.Join(parts, " AND ")
	if opts.Window != "" {
		query += " when:" + opts.Window
	}

	v := url.Values{}
	v.Set("q", query)
	if opts.Language != "" {
		v.Set("hl", opts.Language)
	}
	if opts.Country != "" {
		v.Set("gl", opts.Country)
		v.Set("ceid", opts.Country+":"+opts.Language)
	}

	return base + "?" + v.Encode()
}

func orGroup(words []string) string {
	trimmed := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			trimmed = append(trimmed, w)
		}
	}
	if len(trimmed) == 0 {
		return ""
	}
	if len(trimmed) == 1 {
		return trimmed[0]
	}
	return "(" + strings.Join(trimmed, " OR ") + ")"
}

type feedRepository struct {
	parser *gofeed.Parser
}

func NewFeedRepository() repository.FeedRepository {
	return &feedRepository{
		parser: gofeed.NewParser(),
	}
}

func (r *feedRepository) Fetch(ctx context.Context, feedURL string) ([]*entity.NewsItem, error) {
	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
	}

	items := make([]*entity.NewsItem, 0, len(feed.Items))

	for _, item := range feed.Items {
		guid := item.GUID
		if guid == "" {
			guid = item.Link
		}

		// Entries without a parsed publish time are kept and rendered as
		// "最新" instead of being dropped.
		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}

		items = append(items, entity.NewNewsItem(item.Title, item.Link, item.Description, guid, published))
	}

	return items, nil
}
