package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	titleClip = 200
	linkClip  = 100
)

// Fingerprint derives the stable dedup digest for an article: a hash over
// the title (first 200 runes) and link prefix (first 100 runes). Articles
// sharing a title and link prefix fingerprint identically across runs.
func Fingerprint(title, link string) string {
	content := clip(title, titleClip) + "|" + clip(link, linkClip)
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:16])
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
