package deliver

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hrcguru/tech-news-automation/internal/feed"
)

var (
	previewHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	previewTitle  = lipgloss.NewStyle().Bold(true)
	previewMeta   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	previewScore  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// Preview formats the top stories for the terminal in local mode.
func Preview(articles []feed.Article, limit int) string {
	if limit > len(articles) {
		limit = len(articles)
	}

	var b strings.Builder
	b.WriteString(previewHeader.Render(fmt.Sprintf("Top %d stories", limit)))
	b.WriteString("\n\n")

	for i, a := range articles[:limit] {
		title := a.Title
		if r := []rune(title); len(r) > 80 {
			title = string(r[:77]) + "..."
		}
		b.WriteString(previewTitle.Render(fmt.Sprintf("%d. %s", i+1, title)))
		b.WriteString("\n")
		b.WriteString(previewMeta.Render("   " + a.Source))
		if a.Score > 0 {
			stars := strings.Repeat("★", min(a.Score/2, 5))
			b.WriteString(previewScore.Render(fmt.Sprintf("  score %d %s", a.Score, stars)))
		}
		if len(a.Tags) > 0 {
			b.WriteString(previewMeta.Render("  [" + strings.Join(a.Tags, ", ") + "]"))
		}
		b.WriteString("\n\n")
	}
	return b.String()
}
