package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/common"
)

// Manager owns the database and the storages built on it
type Manager struct {
	db        *BadgerDB
	exchanges *ExchangeStorage
	logger    arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		exchanges: NewExchangeStorage(db, logger),
		logger:    logger,
	}

	logger.Info().Bool("in_memory", config.InMemory).Msg("Badger storage manager initialized")

	return manager, nil
}

// ExchangeStorage returns the exchange audit storage
func (m *Manager) ExchangeStorage() *ExchangeStorage {
	return m.exchanges
}

// DB returns the underlying connection
func (m *Manager) DB() *BadgerDB {
	return m.db
}

// Close closes the database
func (m *Manager) Close() error {
	m.logger.Debug().Msg("Closing Badger storage")
	return m.db.Close()
}
