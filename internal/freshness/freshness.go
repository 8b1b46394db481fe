package freshness

import (
	"strings"
	"time"
)

// dateFormats are tried in order; the first successful parse wins.
var dateFormats = []string{
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"Mon, 02 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02 Jan 2006",
	"January 2, 2006",
}

// recencyMarkers are literal phrases that mark an unparseable date string
// as recent.
var recencyMarkers = []string{"today", "just now", "hours ago", "minutes ago"}

// Checker classifies articles as fresh or stale from their raw published
// date string.
type Checker struct {
	Window time.Duration
	// FallbackFresh controls the policy for dates no format can parse:
	// true gives the benefit of the doubt, false is strict.
	FallbackFresh bool
}

// Parse attempts the known date formats in order and reports whether any
// succeeded.
func Parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsFresh reports whether the article is within the freshness window of
// now. Timezone offsets are stripped before comparison so that zone-less
// formats compare consistently with zoned ones.
func (c Checker) IsFresh(publishedRaw string, now time.Time) bool {
	published, ok := Parse(publishedRaw)
	if !ok {
		lower := strings.ToLower(publishedRaw)
		for _, marker := range recencyMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
		return c.FallbackFresh
	}

	elapsed := stripZone(now).Sub(stripZone(published))
	return elapsed >= 0 && elapsed <= c.Window
}

// stripZone reinterprets t's wall-clock fields as UTC, discarding the
// zone so naive and zoned dates compare on their face value.
func stripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
