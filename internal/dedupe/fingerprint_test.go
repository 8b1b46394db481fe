package dedupe

import (
	"strings"
	"testing"
)

func TestFingerprintStable(t *testing.T) {
	fp1 := Fingerprint("Budget passed", "https://x/a")
	fp2 := Fingerprint("Budget passed", "https://x/a")
	if fp1 != fp2 {
		t.Error("same inputs should produce same fingerprint")
	}
	if len(fp1) != 32 {
		t.Errorf("expected 32-char hex string, got %d chars: %s", len(fp1), fp1)
	}
}

func TestFingerprintDiffers(t *testing.T) {
	if Fingerprint("Title A", "https://x/a") == Fingerprint("Title B", "https://x/a") {
		t.Error("different titles should produce different fingerprints")
	}
	if Fingerprint("Title A", "https://x/a") == Fingerprint("Title A", "https://x/b") {
		t.Error("different links should produce different fingerprints")
	}
}

func TestFingerprintLinkPrefix(t *testing.T) {
	// Links identical in their first 100 characters fingerprint the same
	prefix := "https://example.com/articles/" + strings.Repeat("x", 80)
	fp1 := Fingerprint("Budget passed", prefix+"?utm_source=feed")
	fp2 := Fingerprint("Budget passed", prefix+"?utm_source=mail")
	if fp1 != fp2 {
		t.Error("links sharing a 100-char prefix should fingerprint identically")
	}
}

func TestFingerprintTitleClip(t *testing.T) {
	long := strings.Repeat("a", 250)
	fp1 := Fingerprint(long, "https://x/a")
	fp2 := Fingerprint(long+"tail", "https://x/a")
	if fp1 != fp2 {
		t.Error("titles sharing a 200-char prefix should fingerprint identically")
	}
}
