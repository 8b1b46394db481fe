package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hrcguru/tech-news-automation/internal/browser"
	"github.com/hrcguru/tech-news-automation/internal/config"
	"github.com/hrcguru/tech-news-automation/internal/deliver"
	"github.com/hrcguru/tech-news-automation/internal/feed"
	"github.com/hrcguru/tech-news-automation/internal/pipeline"
	"github.com/hrcguru/tech-news-automation/internal/render"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig string
	flagLocal  bool
	flagOutDir string
)

var rootCmd = &cobra.Command{
	Use:   "newsdigest",
	Short: "RSS news digest generator",
	Long:  "newsdigest pulls configured RSS feeds, ranks articles by keyword relevance, and delivers a styled HTML digest by email or local file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		defer log.Sync()
		return digestOnce(log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.Flags().BoolVar(&flagLocal, "local", false, "force local file delivery even when email is configured")
	rootCmd.Flags().StringVar(&flagOutDir, "out", "", "directory for local digest files (default: working directory)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("newsdigest %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// digestOnce executes one full run: fetch, rank, render, deliver.
func digestOnce(log *zap.Logger) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	delivery := config.LoadDelivery()
	if flagLocal {
		delivery.EmailMode = false
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening fingerprint cache: %w", err)
	}
	defer store.Close()

	now := time.Now()
	runner := pipeline.New(cfg, feed.NewRSSFetcher(), store, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	articles, err := runner.Run(ctx, now)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}
	store.SetLastRun()

	if len(articles) == 0 {
		return nil
	}

	title := cfg.Title
	if title == "" {
		title = "News Digest"
	}

	html, err := render.HTML(title, articles, now)
	if err != nil {
		return fmt.Errorf("rendering digest: %w", err)
	}

	govt := 0
	relevant := 0
	for _, a := range articles {
		if a.Government {
			govt++
		}
		if a.Score > 0 {
			relevant++
		}
	}
	log.Info("digest ready",
		zap.Int("articles", len(articles)),
		zap.Int("relevant", relevant),
		zap.Int("government", govt))

	subject := fmt.Sprintf("%s • %s", title, now.Format("Jan 2"))

	if delivery.EmailMode {
		mailer := deliver.NewMailer(delivery, log)
		if err := mailer.Send(subject, html); err != nil {
			// Output must never be lost silently: fall back to a file.
			log.Error("email delivery failed, saving locally", zap.Error(err))
			path, werr := deliver.WriteLocal(flagOutDir, html, now)
			if werr != nil {
				return fmt.Errorf("email failed and local fallback failed: %w", werr)
			}
			log.Info("digest saved", zap.String("path", path))
		}
		return nil
	}

	path, err := deliver.WriteLocal(flagOutDir, html, now)
	if err != nil {
		return fmt.Errorf("saving digest: %w", err)
	}
	log.Info("digest saved", zap.String("path", path))

	if err := browser.Open("file://" + path); err != nil {
		log.Debug("could not open browser", zap.Error(err))
	}

	fmt.Print(deliver.Preview(articles, 8))

	// Optional: also email when credentials happen to be set locally.
	if delivery.CredentialsSet() {
		mailer := deliver.NewMailer(delivery, log)
		if err := mailer.Send(subject, html); err != nil {
			log.Warn("optional email delivery failed", zap.Error(err))
		}
	}
	return nil
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func parseSince(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
