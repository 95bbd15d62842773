package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule until interrupted",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().String("cron", "", "Cron spec (default from ALGORA_SCHEDULE, e.g. \"0 9,18 * * *\")")
	scheduleCmd.Flags().String("tz", "Europe/Moscow", "Time zone the schedule is evaluated in")
	scheduleCmd.Flags().Bool("now", false, "Also run once immediately")
	rootCmd.AddCommand(scheduleCmd)
}

// newScheduler validates spec in tz and returns a cron that never overlaps runs.
func newScheduler(spec, tz string, log *slog.Logger) (*cron.Cron, cron.Schedule, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, nil, fmt.Errorf("time zone %q: %w", tz, err)
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, nil, fmt.Errorf("cron spec %q: %w", spec, err)
	}
	cl := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return c, sched, nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	spec, _ := cmd.Flags().GetString("cron")
	if spec == "" {
		spec = cfg.ScheduleSpec
	}
	tz, _ := cmd.Flags().GetString("tz")
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	p := newPipeline(st)

	c, sched, err := newScheduler(spec, tz, logger)
	if err != nil {
		return err
	}
	job := func() {
		if _, err := p.Run(ctx, cfg.Category); err != nil && ctx.Err() == nil {
			logger.Error("scheduled run failed", "err", err)
		}
	}
	c.Schedule(sched, cron.FuncJob(job))

	if now, _ := cmd.Flags().GetBool("now"); now {
		job()
	}
	c.Start()
	logger.Info("scheduler started", "cron", spec, "tz", tz, "next", sched.Next(time.Now().In(c.Location())))

	<-ctx.Done()
	logger.Info("scheduler stopping")
	waitStop(c.Stop())
	return nil
}

// waitStop blocks until running jobs finish or a minute passes.
func waitStop(done context.Context) {
	select {
	case <-done.Done():
	case <-time.After(time.Minute):
	}
}
