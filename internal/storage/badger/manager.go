package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db             *BadgerDB
	task           interfaces.TaskStorage
	classification interfaces.ClassificationStorage
	kv             interfaces.KVStorage
	logger         arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:             db,
		task:           NewTaskStorage(db, logger),
		classification: NewClassificationStorage(db, logger),
		kv:             NewKVStorage(db, logger),
		logger:         logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// TaskStorage returns the scrape task storage interface
func (m *Manager) TaskStorage() interfaces.TaskStorage {
	return m.task
}

// ClassificationStorage returns the classification cache storage interface
func (m *Manager) ClassificationStorage() interfaces.ClassificationStorage {
	return m.classification
}

// KVStorage returns the key/value storage interface
func (m *Manager) KVStorage() interfaces.KVStorage {
	return m.kv
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
