package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bako110/Anniv/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockIdleMarker struct {
	MarkIdleOfflineFunc func(ctx context.Context, cutoff time.Time) (int64, error)
	cutoffs             []time.Time
}

func (m *MockIdleMarker) MarkIdleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	m.cutoffs = append(m.cutoffs, cutoff)
	if m.MarkIdleOfflineFunc != nil {
		return m.MarkIdleOfflineFunc(ctx, cutoff)
	}
	return 0, nil
}

func TestPresenceSweepJob_Run(t *testing.T) {
	marker := &MockIdleMarker{
		MarkIdleOfflineFunc: func(ctx context.Context, cutoff time.Time) (int64, error) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return 3, nil
		},
	}
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), nil)
	job := NewPresenceSweepJob(marker, 5*time.Minute, m, nil)
	fixed := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	job.Run()

	require.Len(t, marker.cutoffs, 1)
	assert.True(t, fixed.Add(-5*time.Minute).Equal(marker.cutoffs[0]))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PresenceSweptTotal))
}

func TestPresenceSweepJob_RunErrorIsLogged(t *testing.T) {
	marker := &MockIdleMarker{
		MarkIdleOfflineFunc: func(ctx context.Context, cutoff time.Time) (int64, error) {
			return 0, errors.New("mongo down")
		},
	}
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), nil)
	job := NewPresenceSweepJob(marker, time.Minute, m, nil)

	assert.NotPanics(t, job.Run)
	assert.Zero(t, testutil.ToFloat64(m.PresenceSweptTotal))
}

func TestSchedule(t *testing.T) {
	job := NewPresenceSweepJob(&MockIdleMarker{}, time.Minute, nil, nil)

	c, err := Schedule(job, PresenceSweepSchedule)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	<-c.Stop().Done()

	_, err = Schedule(job, "not a schedule")
	assert.Error(t, err)
}
