package entity

import (
	"strings"
	"time"
)

// DefaultSource is used when a Google News title carries no publisher suffix.
const DefaultSource = "新聞媒體"

// freshLabel is shown for entries whose publish time could not be parsed.
const freshLabel = "最新"

type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	Link        string    `json:"link"`
	Description string    `json:"description,omitempty"`
	Published   time.Time `json:"published"`
	GUID        string    `json:"guid"`
}

// NewNewsItem builds a NewsItem from a raw Google News entry title.
// Google News appends the publisher as a " - Source" suffix to every title.
func NewNewsItem(rawTitle, link, description, guid string, published time.Time) *NewsItem {
	title, source := SplitSourceSuffix(rawTitle)
	return &NewsItem{
		Title:       title,
		Source:      source,
		Link:        link,
		Description: description,
		Published:   published,
		GUID:        guid,
	}
}

// SplitSourceSuffix splits a title on the LAST " - " separator, since the
// headline itself may contain dashes. Titles without the suffix keep the
// full text and fall back to DefaultSource.
func SplitSourceSuffix(raw string) (title, source string) {
	idx := strings.LastIndex(raw, " - ")
	if idx < 0 {
		return raw, DefaultSource
	}
	title = strings.TrimSpace(raw[:idx])
	source = strings.TrimSpace(raw[idx+len(" - "):])
	if title == "" || source == "" {
		return raw, DefaultSource
	}
	return title, source
}

// HasPublished reports whether the feed carried a parseable publish time.
func (n *NewsItem) HasPublished() bool {
	return !n.Published.IsZero()
}

// DisplayDate renders the publish time as 月/日 時:分.
func (n *NewsItem) DisplayDate() string {
	if !n.HasPublished() {
		return freshLabel
	}
	return n.Published.Format("01/02 15:04")
}

// IsNewerThan orders entries for display: dated entries beat undated ones,
// later publish times come first.
func (n *NewsItem) IsNewerThan(other *NewsItem) bool {
	if !n.HasPublished() {
		return false
	}
	if !other.HasPublished() {
		return true
	}
	return n.Published.After(other.Published)
}
