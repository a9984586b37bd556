package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobdigest-engine/internal/pipeline"
	"jobdigest-engine/internal/scheduler"
)

var (
	forceRun      bool
	watchInterval time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the digest once if a scheduled slot is due (or --force)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), false)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Check the schedule on an interval and run whenever a slot is due",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), true)
	},
}

func init() {
	rootCmd.AddCommand(runCmd, watchCmd)

	runCmd.Flags().BoolVarP(&forceRun, "force", "f", false, "ignore the schedule and run now")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Minute, "how often the schedule is checked")
}

func run(parent context.Context, watch bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, _, err := loadConfig(log)
	if err != nil {
		return err
	}
	eng, cleanup, err := buildEngine(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	once := func(ctx context.Context) error {
		rep, err := eng.RunOnce(ctx, forceRun && !watch)
		if errors.Is(err, pipeline.ErrNotEligible) {
			log.Debug("nothing due", zap.Error(err))
			return nil
		}
		if err != nil {
			return err
		}
		log.Info("digest delivered",
			zap.String("run_id", rep.RunID),
			zap.Int("records", len(rep.Records)),
			zap.String("csv", rep.CSVPath))
		return nil
	}

	if !watch {
		return once(ctx)
	}
	log.Info("watching schedule", zap.Duration("interval", watchInterval))
	scheduler.Every(ctx, watchInterval, "digest", once, log)
	return nil
}
