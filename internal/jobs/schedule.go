package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"eduadmin/internal/config"
	"eduadmin/internal/logging"
)

// StartFreezeJob runs the freezer on cfg.FreezeSchedule until ctx is done.
// It returns nil without scheduling anything when the job is disabled.
func StartFreezeJob(ctx context.Context, cfg config.Config, freezer *Freezer, logger *zap.Logger) (*cron.Cron, error) {
	logger = logging.OrNop(logger)
	if !cfg.FreezeEnabled {
		return nil, nil
	}
	if freezer == nil {
		logger.Info("freeze job disabled: no freezer configured")
		return nil, nil
	}
	timeout := cfg.FreezeTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(cfg.FreezeSchedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		report, err := freezer.Run(runCtx)
		if errors.Is(err, ErrRunInProgress) {
			logger.Debug("freeze job skipped: another run holds the lock")
			return
		}
		if err != nil {
			logger.Error("freeze job error", zap.Error(err))
			return
		}
		if report.Attempted > 0 {
			logger.Info("freeze job finished",
				zap.Int("groups", len(report.Groups)),
				zap.Int("frozen", report.Frozen),
				zap.Int("failed", report.Failed))
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "freeze schedule %q", cfg.FreezeSchedule)
	}
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	logger.Info("freeze job started", zap.String("schedule", cfg.FreezeSchedule), zap.Duration("timeout", timeout))
	return c, nil
}
