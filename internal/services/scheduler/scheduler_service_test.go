package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func newTestScheduler() *Service {
	return NewService(arbor.NewLogger()).(*Service)
}

func TestRegisterJob(t *testing.T) {
	svc := newTestScheduler()

	err := svc.RegisterJob("sweep", "*/30 * * * * *", "test sweep", false, func() error { return nil })
	require.NoError(t, err)

	status, err := svc.GetJobStatus("sweep")
	require.NoError(t, err)
	assert.Equal(t, "sweep", status.Name)
	assert.True(t, status.Enabled)
	assert.False(t, status.IsRunning)
}

func TestRegisterJob_DuplicateName(t *testing.T) {
	svc := newTestScheduler()

	require.NoError(t, svc.RegisterJob("sweep", "*/30 * * * * *", "", false, func() error { return nil }))
	err := svc.RegisterJob("sweep", "*/30 * * * * *", "", false, func() error { return nil })
	assert.Error(t, err)
}

func TestRegisterJob_InvalidSchedule(t *testing.T) {
	svc := newTestScheduler()

	// Five-field schedules are rejected; the seconds column is required
	err := svc.RegisterJob("sweep", "*/5 * * * *", "", false, func() error { return nil })
	assert.Error(t, err)

	err = svc.RegisterJob("sweep", "not a schedule", "", false, func() error { return nil })
	assert.Error(t, err)
}

func TestTriggerJob(t *testing.T) {
	svc := newTestScheduler()

	var runs int32
	require.NoError(t, svc.RegisterJob("sweep", "0 0 0 1 1 *", "", false, func() error {
		atomic.AddInt32(&runs, 1)
		return nil
	}))

	require.NoError(t, svc.TriggerJob("sweep"))

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&runs) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))

	status, err := svc.GetJobStatus("sweep")
	require.NoError(t, err)
	assert.NotNil(t, status.LastRun)
	assert.Empty(t, status.LastError)
}

func TestTriggerJob_NotFound(t *testing.T) {
	svc := newTestScheduler()
	assert.Error(t, svc.TriggerJob("missing"))
}

func TestTriggerJob_RecordsHandlerError(t *testing.T) {
	svc := newTestScheduler()

	require.NoError(t, svc.RegisterJob("sweep", "0 0 0 1 1 *", "", false, func() error {
		return errors.New("sweep exploded")
	}))
	require.NoError(t, svc.TriggerJob("sweep"))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		status, err := svc.GetJobStatus("sweep")
		require.NoError(t, err)
		if status.LastError != "" {
			assert.Equal(t, "sweep exploded", status.LastError)
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("handler error never recorded")
}

func TestTriggerJob_RecoversFromPanic(t *testing.T) {
	svc := newTestScheduler()

	require.NoError(t, svc.RegisterJob("sweep", "0 0 0 1 1 *", "", false, func() error {
		panic("boom")
	}))
	require.NoError(t, svc.TriggerJob("sweep"))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		status, err := svc.GetJobStatus("sweep")
		require.NoError(t, err)
		if status.LastError != "" {
			assert.Contains(t, status.LastError, "panic")
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("panic never recorded")
}

func TestEnableDisableJob(t *testing.T) {
	svc := newTestScheduler()

	require.NoError(t, svc.RegisterJob("sweep", "*/30 * * * * *", "", false, func() error { return nil }))

	require.NoError(t, svc.DisableJob("sweep"))
	status, err := svc.GetJobStatus("sweep")
	require.NoError(t, err)
	assert.False(t, status.Enabled)
	assert.Nil(t, status.NextRun)

	require.NoError(t, svc.EnableJob("sweep"))
	status, err = svc.GetJobStatus("sweep")
	require.NoError(t, err)
	assert.True(t, status.Enabled)

	// Idempotent
	require.NoError(t, svc.EnableJob("sweep"))
	require.NoError(t, svc.DisableJob("sweep"))
	require.NoError(t, svc.DisableJob("sweep"))
}

func TestStartStop(t *testing.T) {
	svc := newTestScheduler()

	assert.False(t, svc.IsRunning())
	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())

	// Double start rejected
	assert.Error(t, svc.Start())

	require.NoError(t, svc.Stop())
	assert.False(t, svc.IsRunning())

	// Stopping a stopped scheduler is a no-op
	require.NoError(t, svc.Stop())
}

func TestGetAllJobStatuses(t *testing.T) {
	svc := newTestScheduler()

	require.NoError(t, svc.RegisterJob("a", "*/30 * * * * *", "", false, func() error { return nil }))
	require.NoError(t, svc.RegisterJob("b", "0 */5 * * * *", "", false, func() error { return nil }))

	statuses := svc.GetAllJobStatuses()
	assert.Len(t, statuses, 2)
	assert.Contains(t, statuses, "a")
	assert.Contains(t, statuses, "b")
}
