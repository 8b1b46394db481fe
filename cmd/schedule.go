package cmd

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagCron        string
	flagSkipInitial bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run digests on a fixed schedule",
	Long: `Run the digest job on a cron schedule and block until interrupted.

The default schedule produces a morning and an evening digest. An initial
run fires immediately unless --skip-initial is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		defer log.Sync()

		c := cron.New()
		job := func() {
			log.Info("scheduled run starting")
			if err := digestOnce(log); err != nil {
				log.Error("scheduled run failed", zap.Error(err))
			}
		}

		if _, err := c.AddFunc(flagCron, job); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", flagCron, err)
		}

		log.Info("scheduler started", zap.String("cron", flagCron))
		if !flagSkipInitial {
			job()
		}

		c.Run()
		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&flagCron, "cron", "0 8,18 * * *", "cron expression for digest runs")
	scheduleCmd.Flags().BoolVar(&flagSkipInitial, "skip-initial", false, "do not run a digest immediately on startup")
}
