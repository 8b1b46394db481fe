package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hrcguru/tech-news-automation/internal/config"
)

// Article is one digest candidate, built from a raw feed entry at the
// fetch boundary and enriched by the pipeline.
type Article struct {
	Source         string
	SourceCategory string
	SourcePriority int
	Government     bool

	Title        string
	Link         string
	PublishedRaw string
	// Published is the parsed publish time; zero when the raw date
	// could not be parsed.
	Published time.Time
	Summary   string

	Score       int
	Tags        []string
	Fingerprint string
}

const (
	maxTitleLen   = 200
	maxSummaryLen = 300
	maxDateLen    = 50
)

type Fetcher interface {
	Fetch(ctx context.Context, source config.Source, limit int) ([]Article, error)
}

type RSSFetcher struct {
	parser *gofeed.Parser
}

func NewRSSFetcher() *RSSFetcher {
	return &RSSFetcher{parser: gofeed.NewParser()}
}

// Fetch retrieves up to limit entries from the source's feed. Entries with
// no title or link are skipped. Missing optional fields get defaults here
// so downstream stages never see absent values.
func (f *RSSFetcher) Fetch(ctx context.Context, source config.Source, limit int) ([]Article, error) {
	parsed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	items := parsed.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	articles := make([]Article, 0, len(items))
	for _, item := range items {
		if item.Title == "" || item.Link == "" {
			continue
		}

		published := item.Published
		if published == "" {
			published = item.Updated
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		summary = stripHTML(summary)
		if summary == "" {
			summary = "No summary available"
		}

		articles = append(articles, Article{
			Source:         source.Name,
			SourceCategory: source.Category,
			SourcePriority: source.Priority,
			Government:     source.Government,
			Title:          truncate(item.Title, maxTitleLen),
			Link:           item.Link,
			PublishedRaw:   truncate(published, maxDateLen),
			Summary:        truncate(summary, maxSummaryLen),
		})
	}
	return articles, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
