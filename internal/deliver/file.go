package deliver

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteLocal saves the digest to a timestamped HTML file in dir (the
// working directory when dir is empty) and returns its absolute path.
func WriteLocal(dir, html string, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	filename := fmt.Sprintf("News_Digest_%s.html", now.Format("20060102_1504"))
	path := filepath.Join(dir, filename)

	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("writing digest file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}
