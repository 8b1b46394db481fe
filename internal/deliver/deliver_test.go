package deliver

import (
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hrcguru/tech-news-automation/internal/config"
	"github.com/hrcguru/tech-news-automation/internal/feed"
)

func TestWriteLocal(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC)

	path, err := WriteLocal(dir, "<html>digest</html>", now)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	if !strings.HasSuffix(path, "News_Digest_20250115_0830.html") {
		t.Errorf("unexpected filename: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if string(data) != "<html>digest</html>" {
		t.Errorf("unexpected content: %s", data)
	}
}

func TestPreview(t *testing.T) {
	articles := []feed.Article{
		{Source: "PIB", Title: "Parliament passes Budget", Score: 8, Tags: []string{"polity"}},
		{Source: "Mint", Title: "Markets close flat", Score: 0},
		{Source: "ANI News", Title: "Third story", Score: 2},
	}

	out := Preview(articles, 2)
	if !strings.Contains(out, "Parliament passes Budget") {
		t.Error("preview missing first article")
	}
	if !strings.Contains(out, "Markets close flat") {
		t.Error("preview missing second article")
	}
	if strings.Contains(out, "Third story") {
		t.Error("preview should respect the limit")
	}
	if !strings.Contains(out, "polity") {
		t.Error("preview missing tags")
	}
}

func TestPreviewLimitBeyondLength(t *testing.T) {
	articles := []feed.Article{{Source: "PIB", Title: "Only story"}}
	out := Preview(articles, 10)
	if !strings.Contains(out, "Only story") {
		t.Error("preview should handle limit larger than article count")
	}
}

func TestMailerRequiresCredentials(t *testing.T) {
	m := NewMailer(config.Delivery{}, zap.NewNop())
	if err := m.Send("subject", "<html></html>"); err == nil {
		t.Error("expected error without credentials")
	}
}
