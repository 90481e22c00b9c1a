package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/bako110/Anniv/internal/metrics"
	"github.com/robfig/cron/v3"
)

// PresenceSweepSchedule runs the sweep at the top of every minute.
const PresenceSweepSchedule = "* * * * *"

// IdleMarker is the slice of the profile store the sweep needs.
type IdleMarker interface {
	MarkIdleOffline(ctx context.Context, cutoff time.Time) (int64, error)
}

// PresenceSweepJob marks profiles offline once their last heartbeat is older than idle.
type PresenceSweepJob struct {
	profiles IdleMarker
	idle     time.Duration
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewPresenceSweepJob(profiles IdleMarker, idle time.Duration, m *metrics.Metrics, logger *slog.Logger) *PresenceSweepJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PresenceSweepJob{
		profiles: profiles,
		idle:     idle,
		timeout:  30 * time.Second,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one sweep. It satisfies cron.Job.
func (j *PresenceSweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	cutoff := j.now().Add(-j.idle)
	n, err := j.profiles.MarkIdleOffline(ctx, cutoff)
	if err != nil {
		j.logger.Error("presence sweep failed", "error", err)
		return
	}
	j.metrics.AddPresenceSwept(n)
	if n > 0 {
		j.logger.Info("presence sweep marked profiles offline", "count", n, "cutoff", cutoff)
	}
}

// Schedule registers the job on a new cron and starts it. Stop the returned
// cron on shutdown.
func Schedule(job *PresenceSweepJob, spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddJob(spec, job); err != nil {
		return nil, err
	}
	c.Start()
	job.logger.Info("presence sweep scheduled", "schedule", spec, "idle", job.idle.String())
	return c, nil
}
