package render

import (
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/hrcguru/tech-news-automation/internal/feed"
)

//go:embed digest.tmpl
var templateFS embed.FS

var digestTmpl = template.Must(template.ParseFS(templateFS, "digest.tmpl"))

type card struct {
	Rank       int
	Title      string
	Link       string
	Source     string
	Published  string
	Summary    string
	Score      int
	Stars      string
	Tags       []string
	Government bool
	Highlight  bool
}

type subjectCount struct {
	Subject string
	Count   int
}

type page struct {
	Title       string
	DateLabel   string
	Timestamp   string
	Total       int
	Relevant    int
	Government  int
	TopSubjects []subjectCount
	Cards       []card
	GeneratedAt string
}

// HTML renders the ranked article list into a self-contained digest
// document. All article-supplied fields pass through html/template's
// contextual escaping, so feed content cannot inject markup.
func HTML(title string, articles []feed.Article, now time.Time) (string, error) {
	p := page{
		Title:       title,
		DateLabel:   now.Format("Jan 2"),
		Timestamp:   now.Format("Monday, January 2, 2006 • 3:04 PM"),
		Total:       len(articles),
		GeneratedAt: now.Format("2006-01-02 15:04:05"),
	}

	tagCounts := map[string]int{}
	for i, a := range articles {
		if a.Score > 0 {
			p.Relevant++
		}
		if a.Government {
			p.Government++
		}
		for _, t := range a.Tags {
			tagCounts[t]++
		}

		p.Cards = append(p.Cards, card{
			Rank:       i + 1,
			Title:      displayTitle(a.Title),
			Link:       a.Link,
			Source:     a.Source,
			Published:  a.PublishedRaw,
			Summary:    a.Summary,
			Score:      a.Score,
			Stars:      stars(a.Score),
			Tags:       a.Tags,
			Government: a.Government,
			Highlight:  a.Score >= 10,
		})
	}

	p.TopSubjects = topSubjects(tagCounts, 5)

	var b strings.Builder
	if err := digestTmpl.Execute(&b, p); err != nil {
		return "", fmt.Errorf("rendering digest: %w", err)
	}
	return b.String(), nil
}

// Stars returns up to five filled stars scaled from the score.
func stars(score int) string {
	n := score / 2
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n)
}

func displayTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= 150 {
		return title
	}
	return string(runes[:147]) + "..."
}

func topSubjects(counts map[string]int, limit int) []subjectCount {
	out := make([]subjectCount, 0, len(counts))
	for subject, count := range counts {
		out = append(out, subjectCount{subject, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Subject < out[j].Subject
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
