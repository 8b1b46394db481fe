package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrcguru/tech-news-automation/internal/config"
	"github.com/hrcguru/tech-news-automation/internal/dedupe"
)

var flagPruneOlderThan string

func openStore(cfg *config.Config) (*dedupe.Store, error) {
	return dedupe.Open(config.CachePath(), cfg.RetentionDuration())
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old fingerprints from the seen cache",
	Long: `Delete seen-article fingerprints older than the retention period.

Uses the retention value from config (default: 2d) unless overridden with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// Open without the automatic purge so --older-than is authoritative.
		store, err := dedupe.Open(config.CachePath(), 0)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer store.Close()

		retention := cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			d, err := parseSince(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		deleted, err := store.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		if deleted == 0 {
			fmt.Println("Nothing to prune.")
		} else {
			fmt.Printf("Pruned %d fingerprint(s) older than %s.\n", deleted, formatDuration(retention))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show seen-cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := config.CachePath()
		store, err := dedupe.Open(dbPath, 0)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer store.Close()

		count, size, err := store.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		fmt.Printf("Cache: %s\n", dbPath)
		fmt.Printf("Fingerprints: %d\n", count)
		fmt.Printf("Size: %s\n", formatBytes(size))
		if last := store.LastRun(); !last.IsZero() {
			fmt.Printf("Last run: %s\n", last.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 2d, 48h)")
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
