package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const releaseLockKey = "course_ledger:jobs:release_commissions"

// Releaser is the part of the affiliate engine the sweep needs.
type Releaser interface {
	ReleaseCommissions(ctx context.Context) (int64, error)
}

// ReleaseJob moves matured affiliate commissions to available. It implements cron.Job.
type ReleaseJob struct {
	releaser Releaser
	locker   Locker
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewReleaseJob(releaser Releaser, locker Locker, logger zerolog.Logger) *ReleaseJob {
	if locker == nil {
		locker = LocalLocker{}
	}
	return &ReleaseJob{
		releaser: releaser,
		locker:   locker,
		timeout:  2 * time.Minute,
		logger:   logger.With().Str("job", "release_commissions").Logger(),
	}
}

func (j *ReleaseJob) Run() {
	if _, err := j.RunOnce(context.Background()); err != nil {
		j.logger.Error().Err(err).Msg("release sweep failed")
	}
}

// RunOnce performs one sweep and reports how many commissions it released. It returns
// zero without error when another replica holds the lock.
func (j *ReleaseJob) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	release, err := j.locker.TryLock(ctx, releaseLockKey, j.timeout)
	if err != nil {
		return 0, err
	}
	if release == nil {
		j.logger.Debug().Msg("sweep already running elsewhere, skipping")
		return 0, nil
	}
	defer release()

	n, err := j.releaser.ReleaseCommissions(ctx)
	if err != nil {
		return 0, err
	}
	j.logger.Debug().Int64("released", n).Msg("release sweep finished")
	return n, nil
}

// Schedule registers the job on c. An empty spec falls back to every fifteen minutes.
func Schedule(c *cron.Cron, spec string, job cron.Job) (cron.EntryID, error) {
	if spec == "" {
		spec = "@every 15m"
	}
	return c.AddJob(spec, job)
}
