package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	deleted int64
	err     error
}

func (f *fakePruner) DeletePredictionsBefore(cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, f.err
}

func TestSweepUsesRetentionWindow(t *testing.T) {
	pruner := &fakePruner{deleted: 3}
	svc, err := NewService(pruner, 30, "@daily", nil)
	require.NoError(t, err)

	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	deleted, err := svc.Sweep()
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	require.Len(t, pruner.cutoffs, 1)
	assert.Equal(t, time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC), pruner.cutoffs[0])
}

func TestSweepPropagatesErrors(t *testing.T) {
	pruner := &fakePruner{err: errors.New("disk full")}
	svc, err := NewService(pruner, 7, "", nil)
	require.NoError(t, err)

	_, err = svc.Sweep()
	assert.EqualError(t, err, "disk full")
}

func TestZeroRetentionKeepsEverything(t *testing.T) {
	pruner := &fakePruner{}
	svc, err := NewService(pruner, 0, "@hourly", nil)
	require.NoError(t, err)

	deleted, err := svc.Sweep()
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Empty(t, pruner.cutoffs)

	require.NoError(t, svc.Start())
	assert.True(t, svc.NextRun().IsZero(), "nothing is scheduled")
	svc.Stop()
}

func TestStartStop(t *testing.T) {
	svc, err := NewService(&fakePruner{}, 30, "0 3 * * *", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Start())
	require.NoError(t, svc.Start(), "starting twice is a no-op")

	next := svc.NextRun()
	require.False(t, next.IsZero())
	assert.Equal(t, 3, next.Hour())
	assert.Zero(t, next.Minute())

	svc.Stop()
	svc.Stop()
	assert.True(t, svc.NextRun().IsZero())
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(nil, 30, "@daily", nil)
	assert.Error(t, err)

	_, err = NewService(&fakePruner{}, -1, "@daily", nil)
	assert.Error(t, err)

	_, err = NewService(&fakePruner{}, 30, "whenever", nil)
	assert.Error(t, err)
}
