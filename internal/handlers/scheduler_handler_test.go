package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/services/scheduler"
)

// fakeKVStorage is an in-memory KVStorage
type fakeKVStorage struct {
	values map[string]string
}

func newFakeKVStorage() *fakeKVStorage {
	return &fakeKVStorage{values: make(map[string]string)}
}

func (f *fakeKVStorage) Set(ctx context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

func (f *fakeKVStorage) Get(ctx context.Context, key string) (string, error) {
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return "", errors.New("key not found")
}

func (f *fakeKVStorage) Delete(ctx context.Context, key string) error {
	delete(f.values, key)
	return nil
}

func (f *fakeKVStorage) List(ctx context.Context) (map[string]string, error) {
	return f.values, nil
}

func newSchedulerFixture(t *testing.T, jobHandler func() error) (*SchedulerHandler, interfaces.SchedulerService, *fakeKVStorage) {
	t.Helper()
	if jobHandler == nil {
		jobHandler = func() error { return nil }
	}
	sched := scheduler.NewService(arbor.NewLogger())
	require.NoError(t, sched.RegisterJob("sweep", "0 0 0 1 1 *", "test sweep", false, jobHandler))
	kv := newFakeKVStorage()
	return NewSchedulerHandler(sched, kv, arbor.NewLogger()), sched, kv
}

func TestListJobsHandler(t *testing.T) {
	handler, _, _ := newSchedulerFixture(t, nil)

	req := httptest.NewRequest("GET", "/api/scheduler/jobs", nil)
	rec := httptest.NewRecorder()
	handler.ListJobsHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var jobs map[string]*interfaces.JobStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&jobs))
	require.Contains(t, jobs, "sweep")
	assert.True(t, jobs["sweep"].Enabled)
}

func TestListJobsHandler_WrongMethod(t *testing.T) {
	handler, _, _ := newSchedulerFixture(t, nil)

	req := httptest.NewRequest("POST", "/api/scheduler/jobs", nil)
	rec := httptest.NewRecorder()
	handler.ListJobsHandler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestJobActionHandler_GetStatus(t *testing.T) {
	handler, _, _ := newSchedulerFixture(t, nil)

	req := httptest.NewRequest("GET", "/api/scheduler/jobs/sweep", nil)
	rec := httptest.NewRecorder()
	handler.JobActionHandler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var status interfaces.JobStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "sweep", status.Name)

	req = httptest.NewRequest("GET", "/api/scheduler/jobs/missing", nil)
	rec = httptest.NewRecorder()
	handler.JobActionHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobActionHandler_Trigger(t *testing.T) {
	var runs int32
	handler, _, _ := newSchedulerFixture(t, func() error {
		atomic.AddInt32(&runs, 1)
		return nil
	})

	req := httptest.NewRequest("POST", "/api/scheduler/jobs/sweep/trigger", nil)
	rec := httptest.NewRecorder()
	handler.JobActionHandler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&runs) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestJobActionHandler_TriggerUnknownJob(t *testing.T) {
	handler, _, _ := newSchedulerFixture(t, nil)

	req := httptest.NewRequest("POST", "/api/scheduler/jobs/missing/trigger", nil)
	rec := httptest.NewRecorder()
	handler.JobActionHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobActionHandler_DisableEnablePersists(t *testing.T) {
	handler, sched, kv := newSchedulerFixture(t, nil)

	req := httptest.NewRequest("POST", "/api/scheduler/jobs/sweep/disable", nil)
	rec := httptest.NewRecorder()
	handler.JobActionHandler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	status, err := sched.GetJobStatus("sweep")
	require.NoError(t, err)
	assert.False(t, status.Enabled)
	assert.Equal(t, "true", kv.values[SchedulerJobDisabledKey("sweep")])

	req = httptest.NewRequest("POST", "/api/scheduler/jobs/sweep/enable", nil)
	rec = httptest.NewRecorder()
	handler.JobActionHandler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	status, err = sched.GetJobStatus("sweep")
	require.NoError(t, err)
	assert.True(t, status.Enabled)
	assert.Equal(t, "false", kv.values[SchedulerJobDisabledKey("sweep")])
}

func TestJobActionHandler_UnknownAction(t *testing.T) {
	handler, _, _ := newSchedulerFixture(t, nil)

	req := httptest.NewRequest("POST", "/api/scheduler/jobs/sweep/restart", nil)
	rec := httptest.NewRecorder()
	handler.JobActionHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobActionHandler_ActionRequiresPost(t *testing.T) {
	handler, _, _ := newSchedulerFixture(t, nil)

	req := httptest.NewRequest("GET", "/api/scheduler/jobs/sweep/trigger", nil)
	rec := httptest.NewRecorder()
	handler.JobActionHandler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
