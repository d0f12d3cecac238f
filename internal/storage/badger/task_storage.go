package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ErrTaskNotFound is returned when a task id or request id has no match
var ErrTaskNotFound = fmt.Errorf("task not found")

// TaskStorage implements scrape task persistence over badgerhold
type TaskStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTaskStorage creates a new TaskStorage instance
func NewTaskStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TaskStorage {
	return &TaskStorage{
		db:     db,
		logger: logger,
	}
}

// SaveTask inserts or updates a scrape task
func (s *TaskStorage) SaveTask(ctx context.Context, task *models.ScrapeTask) error {
	if task.ID == "" {
		return fmt.Errorf("task ID is required")
	}

	if err := s.db.Store().Upsert(task.ID, task); err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}

	s.logger.Debug().
		Str("task_id", task.ID).
		Str("status", string(task.Status)).
		Msg("Task saved")

	return nil
}

// GetTask retrieves a task by id
func (s *TaskStorage) GetTask(ctx context.Context, id string) (*models.ScrapeTask, error) {
	var task models.ScrapeTask
	err := s.db.Store().Get(id, &task)
	if err == badgerhold.ErrNotFound {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return &task, nil
}

// GetTaskByRequestID finds the task a provider request id belongs to.
// Terminal tasks are excluded so late duplicate callbacks stay no-ops.
func (s *TaskStorage) GetTaskByRequestID(ctx context.Context, requestID string) (*models.ScrapeTask, error) {
	if requestID == "" {
		return nil, ErrTaskNotFound
	}

	var tasks []*models.ScrapeTask
	query := badgerhold.Where("RequestID").Eq(requestID).
		And("Status").Ne(models.TaskStatusProcessed).
		And("Status").Ne(models.TaskStatusFailed)
	if err := s.db.Store().Find(&tasks, query); err != nil {
		return nil, fmt.Errorf("failed to query task by request id: %w", err)
	}
	if len(tasks) == 0 {
		return nil, ErrTaskNotFound
	}
	return tasks[0], nil
}

// ListTasks returns tasks newest first, up to limit (0 means no limit)
func (s *TaskStorage) ListTasks(ctx context.Context, limit int) ([]*models.ScrapeTask, error) {
	var tasks []*models.ScrapeTask
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Store().Find(&tasks, query); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListActiveTasks returns all non-terminal tasks
func (s *TaskStorage) ListActiveTasks(ctx context.Context) ([]*models.ScrapeTask, error) {
	var tasks []*models.ScrapeTask
	query := badgerhold.Where("Status").Ne(models.TaskStatusProcessed).
		And("Status").Ne(models.TaskStatusFailed).
		SortBy("CreatedAt")
	if err := s.db.Store().Find(&tasks, query); err != nil {
		return nil, fmt.Errorf("failed to list active tasks: %w", err)
	}
	return tasks, nil
}

// ListTasksSubmittedBefore returns non-terminal tasks whose submission
// is older than the cutoff. Used by the timeout sweep.
func (s *TaskStorage) ListTasksSubmittedBefore(ctx context.Context, cutoff time.Time) ([]*models.ScrapeTask, error) {
	active, err := s.ListActiveTasks(ctx)
	if err != nil {
		return nil, err
	}

	// SubmittedAt is a pointer field, so filter in memory rather than in
	// the badgerhold query.
	var stale []*models.ScrapeTask
	for _, task := range active {
		if task.SubmittedAt != nil && task.SubmittedAt.Before(cutoff) {
			stale = append(stale, task)
		}
	}
	return stale, nil
}

// DeleteTask removes a task by id
func (s *TaskStorage) DeleteTask(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.ScrapeTask{})
	if err == badgerhold.ErrNotFound {
		return ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return nil
}

// CountTasks returns the total number of stored tasks
func (s *TaskStorage) CountTasks(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ScrapeTask{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return int(count), nil
}
