package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hrcguru/tech-news-automation/internal/config"
	"github.com/hrcguru/tech-news-automation/internal/dedupe"
	"github.com/hrcguru/tech-news-automation/internal/feed"
)

type fakeFetcher struct {
	articles map[string][]feed.Article
	errs     map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, source config.Source, limit int) ([]feed.Article, error) {
	if err := f.errs[source.Name]; err != nil {
		return nil, err
	}
	out := f.articles[source.Name]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memStore struct {
	history  map[string]time.Time
	recorded []string
	loadErr  error
}

func (m *memStore) Load() (map[string]time.Time, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.history == nil {
		m.history = map[string]time.Time{}
	}
	return m.history, nil
}

func (m *memStore) Record(fps []string, seenAt time.Time) error {
	m.recorded = append(m.recorded, fps...)
	return nil
}

func testConfig(sources ...config.Source) *config.Config {
	return &config.Config{
		Sources: sources,
		Taxonomy: config.Taxonomy{
			Tiers: map[string]config.Tier{
				"high":   {Weight: 5, Phrases: []string{"Parliament"}},
				"medium": {Weight: 3, Phrases: []string{"Budget"}},
			},
			Categories: map[string][]string{
				"polity": {"Parliament"},
			},
		},
	}
}

func article(source, title, link string, now time.Time) feed.Article {
	return feed.Article{
		Source:       source,
		Title:        title,
		Link:         link,
		PublishedRaw: now.Format(time.RFC3339),
		Summary:      "No summary available",
	}
}

func TestRunDeduplicatesAcrossSources(t *testing.T) {
	now := time.Now()
	srcA := config.Source{Name: "A", URL: "https://a.example/feed", Enabled: true}
	srcB := config.Source{Name: "B", URL: "https://b.example/feed", Enabled: true}

	fetcher := &fakeFetcher{articles: map[string][]feed.Article{
		"A": {article("A", "Budget passed", "https://x/a", now)},
		"B": {article("B", "Budget passed", "https://x/a", now)},
	}}
	store := &memStore{}

	runner := New(testConfig(srcA, srcB), fetcher, store, zap.NewNop())
	got, err := runner.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 article after dedup, got %d", len(got))
	}
	if got[0].Source != "A" {
		t.Errorf("first-seen source should win, got %s", got[0].Source)
	}

	want := dedupe.Fingerprint("Budget passed", "https://x/a")
	found := false
	for _, fp := range store.recorded {
		if fp == want {
			found = true
		}
	}
	if !found {
		t.Error("fingerprint of the kept article should be persisted")
	}
}

func TestRunSkipsHistoricalDuplicates(t *testing.T) {
	now := time.Now()
	src := config.Source{Name: "A", URL: "https://a.example/feed", Enabled: true}

	fp := dedupe.Fingerprint("Budget passed", "https://x/a")
	store := &memStore{history: map[string]time.Time{fp: now.Add(-time.Hour)}}
	fetcher := &fakeFetcher{articles: map[string][]feed.Article{
		"A": {
			article("A", "Budget passed", "https://x/a", now),
			article("A", "New story", "https://x/b", now),
		},
	}}

	runner := New(testConfig(src), fetcher, store, zap.NewNop())
	got, err := runner.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(got) != 1 || got[0].Title != "New story" {
		t.Fatalf("expected only the unseen article, got %v", got)
	}
}

func TestRunSurvivesSourceFailure(t *testing.T) {
	now := time.Now()
	srcA := config.Source{Name: "A", URL: "https://a.example/feed", Enabled: true}
	srcB := config.Source{Name: "B", URL: "https://b.example/feed", Enabled: true}

	fetcher := &fakeFetcher{
		articles: map[string][]feed.Article{
			"B": {article("B", "Surviving story", "https://x/b", now)},
		},
		errs: map[string]error{"A": errors.New("connection refused")},
	}

	runner := New(testConfig(srcA, srcB), fetcher, &memStore{}, zap.NewNop())
	got, err := runner.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("a failing source must not abort the run: %v", err)
	}
	if len(got) != 1 || got[0].Source != "B" {
		t.Fatalf("expected the healthy source's article, got %v", got)
	}
}

func TestRunFreshnessGate(t *testing.T) {
	now := time.Now()
	src := config.Source{Name: "A", URL: "https://a.example/feed", Enabled: true}

	stale := article("A", "Old story", "https://x/old", now.Add(-48*time.Hour))
	fresh := article("A", "New story", "https://x/new", now)
	fetcher := &fakeFetcher{articles: map[string][]feed.Article{"A": {stale, fresh}}}

	runner := New(testConfig(src), fetcher, &memStore{}, zap.NewNop())
	got, err := runner.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != 1 || got[0].Title != "New story" {
		t.Fatalf("expected only the fresh article, got %v", got)
	}
}

func TestRunScoresAndTags(t *testing.T) {
	now := time.Now()
	src := config.Source{Name: "A", URL: "https://a.example/feed", Enabled: true}
	fetcher := &fakeFetcher{articles: map[string][]feed.Article{
		"A": {article("A", "Parliament passes Budget", "https://x/a", now)},
	}}

	runner := New(testConfig(src), fetcher, &memStore{}, zap.NewNop())
	got, err := runner.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got[0].Score != 8 {
		t.Errorf("expected score 8 (high 5 + medium 3), got %d", got[0].Score)
	}
	if len(got[0].Tags) != 1 || got[0].Tags[0] != "polity" {
		t.Errorf("expected polity tag, got %v", got[0].Tags)
	}
	if got[0].Fingerprint == "" {
		t.Error("fingerprint should be set on kept articles")
	}
}

func TestRunRanksAndTruncates(t *testing.T) {
	now := time.Now()
	src := config.Source{Name: "A", URL: "https://a.example/feed", Enabled: true}

	var articles []feed.Article
	// One high scorer buried at the end, 49 zero scorers before it
	for i := 0; i < 49; i++ {
		articles = append(articles, article("A", fmt.Sprintf("Filler story %d", i), fmt.Sprintf("https://x/%d", i), now))
	}
	articles = append(articles, article("A", "Parliament session", "https://x/top", now))

	cfg := testConfig(src)
	cfg.Pipeline.PerSourceCap = 100
	cfg.Pipeline.TopN = 25

	runner := New(cfg, &fakeFetcher{articles: map[string][]feed.Article{"A": articles}}, &memStore{}, zap.NewNop())
	got, err := runner.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(got) != 25 {
		t.Fatalf("expected top-25 truncation, got %d", len(got))
	}
	if got[0].Title != "Parliament session" {
		t.Errorf("highest scorer should rank first, got %q", got[0].Title)
	}
	// Stable ties: zero scorers keep encounter order
	if got[1].Title != "Filler story 0" || got[2].Title != "Filler story 1" {
		t.Errorf("ties should keep encounter order, got %q then %q", got[1].Title, got[2].Title)
	}
}

func TestRunGovernmentTieBreak(t *testing.T) {
	now := time.Now()
	srcA := config.Source{Name: "A", URL: "https://a.example/feed", Enabled: true}
	srcB := config.Source{Name: "B", URL: "https://b.example/feed", Government: true, Enabled: true}

	fetcher := &fakeFetcher{articles: map[string][]feed.Article{
		"A": {article("A", "Story one", "https://x/1", now)},
		"B": {{
			Source: "B", Government: true,
			Title: "Story two", Link: "https://x/2",
			PublishedRaw: now.Format(time.RFC3339),
		}},
	}}

	runner := New(testConfig(srcA, srcB), fetcher, &memStore{}, zap.NewNop())
	got, err := runner.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	// Equal scores: the government source wins the secondary key
	if !got[0].Government {
		t.Errorf("government article should rank first on tie, got %q", got[0].Title)
	}
}

func TestRunStoreLoadFailureDisablesHistoryDedup(t *testing.T) {
	now := time.Now()
	src := config.Source{Name: "A", URL: "https://a.example/feed", Enabled: true}
	store := &memStore{loadErr: errors.New("disk gone")}
	fetcher := &fakeFetcher{articles: map[string][]feed.Article{
		"A": {article("A", "Story", "https://x/a", now)},
	}}

	runner := New(testConfig(src), fetcher, store, zap.NewNop())
	got, err := runner.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("cache failure must not fail the run: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 article with empty history, got %d", len(got))
	}
}

func TestRunEmptyResultIsValid(t *testing.T) {
	src := config.Source{Name: "A", URL: "https://a.example/feed", Enabled: true}
	runner := New(testConfig(src), &fakeFetcher{}, &memStore{}, zap.NewNop())

	got, err := runner.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("empty run should not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no articles, got %d", len(got))
	}
}

func TestRunPerSourceCap(t *testing.T) {
	now := time.Now()
	src := config.Source{Name: "A", URL: "https://a.example/feed", Enabled: true}

	var articles []feed.Article
	for i := 0; i < 20; i++ {
		articles = append(articles, article("A", fmt.Sprintf("Story %d", i), fmt.Sprintf("https://x/%d", i), now))
	}

	runner := New(testConfig(src), &fakeFetcher{articles: map[string][]feed.Article{"A": articles}}, &memStore{}, zap.NewNop())
	got, err := runner.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != 8 {
		t.Fatalf("expected default per-source cap of 8, got %d", len(got))
	}
}
