package pipeline

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hrcguru/tech-news-automation/internal/config"
	"github.com/hrcguru/tech-news-automation/internal/dedupe"
	"github.com/hrcguru/tech-news-automation/internal/feed"
	"github.com/hrcguru/tech-news-automation/internal/freshness"
	"github.com/hrcguru/tech-news-automation/internal/relevance"
)

// SeenStore is the fingerprint history the pipeline dedupes against.
type SeenStore interface {
	Load() (map[string]time.Time, error)
	Record(fingerprints []string, seenAt time.Time) error
}

// Runner executes one digest run: fetch, filter, dedupe, score, rank.
type Runner struct {
	cfg     *config.Config
	fetcher feed.Fetcher
	store   SeenStore
	scorer  *relevance.Scorer
	checker freshness.Checker
	log     *zap.Logger
}

func New(cfg *config.Config, fetcher feed.Fetcher, store SeenStore, log *zap.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		fetcher: fetcher,
		store:   store,
		scorer:  relevance.NewScorer(cfg.Taxonomy),
		checker: freshness.Checker{Window: cfg.Window(), FallbackFresh: cfg.FallbackFresh()},
		log:     log,
	}
}

// Run processes every enabled source in registry order and returns the
// ranked, truncated article list. A failing source is logged and skipped;
// an empty result is a valid outcome, not an error.
func (r *Runner) Run(ctx context.Context, now time.Time) ([]feed.Article, error) {
	history, err := r.store.Load()
	if err != nil {
		// Dedup degrades to within-run only for this run.
		r.log.Warn("loading fingerprint history failed", zap.Error(err))
		history = map[string]time.Time{}
	}

	seenThisRun := make(map[string]struct{})
	var articles []feed.Article

	for _, src := range r.cfg.EnabledSources() {
		entries, err := r.fetcher.Fetch(ctx, src, r.cfg.PerSourceCap())
		if err != nil {
			r.log.Error("source fetch failed", zap.String("source", src.Name), zap.Error(err))
			continue
		}

		kept := 0
		for _, a := range entries {
			if !r.checker.IsFresh(a.PublishedRaw, now) {
				continue
			}

			fp := dedupe.Fingerprint(a.Title, a.Link)
			if _, dup := history[fp]; dup {
				continue
			}
			if _, dup := seenThisRun[fp]; dup {
				continue
			}
			seenThisRun[fp] = struct{}{}

			a.Fingerprint = fp
			if t, ok := freshness.Parse(a.PublishedRaw); ok {
				a.Published = t
			}

			text := a.Title + " " + a.Summary
			a.Score = r.scorer.Score(text)
			a.Tags = r.scorer.Tags(text)

			articles = append(articles, a)
			kept++
		}

		r.log.Info("source processed",
			zap.String("source", src.Name),
			zap.Int("fetched", len(entries)),
			zap.Int("kept", kept))
	}

	r.rank(articles)

	if n := r.cfg.TopN(); len(articles) > n {
		articles = articles[:n]
	}

	if err := r.record(seenThisRun, now); err != nil {
		r.log.Error("persisting fingerprints failed", zap.Error(err))
	}

	if len(articles) == 0 {
		r.log.Warn("no fresh articles found this run")
	}
	return articles, nil
}

// rank sorts descending by the configured key tuple, most significant
// first. The sort is stable: ties keep source-iteration encounter order.
func (r *Runner) rank(articles []feed.Article) {
	keys := r.cfg.SortKeys()
	sort.SliceStable(articles, func(i, j int) bool {
		for _, key := range keys {
			switch c := compareKey(key, articles[i], articles[j]); {
			case c > 0:
				return true
			case c < 0:
				return false
			}
		}
		return false
	})
}

func compareKey(key string, a, b feed.Article) int {
	switch key {
	case "score":
		return a.Score - b.Score
	case "government":
		return boolInt(a.Government) - boolInt(b.Government)
	case "priority":
		return a.SourcePriority - b.SourcePriority
	case "recency":
		switch {
		case a.Published.After(b.Published):
			return 1
		case b.Published.After(a.Published):
			return -1
		}
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *Runner) record(seen map[string]struct{}, now time.Time) error {
	fps := make([]string, 0, len(seen))
	for fp := range seen {
		fps = append(fps, fp)
	}
	return r.store.Record(fps, now)
}
