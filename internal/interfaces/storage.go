package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/venari/internal/models"
)

// TaskStorage - interface for scrape task persistence
type TaskStorage interface {
	SaveTask(ctx context.Context, task *models.ScrapeTask) error
	GetTask(ctx context.Context, id string) (*models.ScrapeTask, error)
	GetTaskByRequestID(ctx context.Context, requestID string) (*models.ScrapeTask, error)
	ListTasks(ctx context.Context, limit int) ([]*models.ScrapeTask, error)
	ListActiveTasks(ctx context.Context) ([]*models.ScrapeTask, error)
	ListTasksSubmittedBefore(ctx context.Context, cutoff time.Time) ([]*models.ScrapeTask, error)
	DeleteTask(ctx context.Context, id string) error
	CountTasks(ctx context.Context) (int, error)
}

// ClassificationStorage - interface for the fingerprint-keyed classification cache
type ClassificationStorage interface {
	SaveEntry(ctx context.Context, entry *models.CacheEntry) error
	SaveEntries(ctx context.Context, entries []*models.CacheEntry) error
	GetEntry(ctx context.Context, fp models.Fingerprint) (*models.CacheEntry, error)
	GetEntries(ctx context.Context, fps []models.Fingerprint) ([]*models.CacheEntry, error)
	TouchEntries(ctx context.Context, fps []models.Fingerprint, at time.Time) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	CountEntries(ctx context.Context) (int, error)
}

// KVStorage - interface for small key/value settings (API keys, runtime flags)
type KVStorage interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	TaskStorage() TaskStorage
	ClassificationStorage() ClassificationStorage
	KVStorage() KVStorage
	DB() interface{}
	Close() error
}
