package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/docinsight/internal/interfaces"
	"github.com/ternarybob/docinsight/internal/models"
)

const defaultListLimit = 50

// ExchangeStorage implements ExchangeStorage for Badger
type ExchangeStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

var _ interfaces.ExchangeStorage = (*ExchangeStorage)(nil)

// NewExchangeStorage creates a new ExchangeStorage instance
func NewExchangeStorage(db *BadgerDB, logger arbor.ILogger) *ExchangeStorage {
	return &ExchangeStorage{
		db:     db,
		logger: logger,
	}
}

// SaveExchange appends a record, assigning it the next sequence ID
func (s *ExchangeStorage) SaveExchange(ctx context.Context, record *models.ExchangeRecord) error {
	if record == nil {
		return fmt.Errorf("exchange record cannot be nil")
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	if err := s.db.Store().Insert(badgerhold.NextSequence(), record); err != nil {
		return fmt.Errorf("failed to save exchange record: %w", err)
	}
	return nil
}

// ListRecent returns the newest records first
func (s *ExchangeStorage) ListRecent(ctx context.Context, limit int) ([]models.ExchangeRecord, error) {
	query := badgerhold.Where("SessionID").Ne("").SortBy("Timestamp").Reverse().Limit(normalizeLimit(limit))

	var records []models.ExchangeRecord
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list exchange records: %w", err)
	}
	return records, nil
}

// ListBySession returns one session's records, newest first
func (s *ExchangeStorage) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.ExchangeRecord, error) {
	query := badgerhold.Where("SessionID").Eq(sessionID).Index("SessionID").SortBy("Timestamp").Reverse().Limit(normalizeLimit(limit))

	var records []models.ExchangeRecord
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list exchange records for session %s: %w", sessionID, err)
	}
	return records, nil
}

// Count returns the number of stored records
func (s *ExchangeStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ExchangeRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count exchange records: %w", err)
	}
	return int(count), nil
}

// PurgeOlderThan deletes records stamped before cutoff
func (s *ExchangeStorage) PurgeOlderThan(ctx context.Context, cutoff time.Time) error {
	if err := s.db.Store().DeleteMatching(&models.ExchangeRecord{}, badgerhold.Where("Timestamp").Lt(cutoff)); err != nil {
		return fmt.Errorf("failed to purge exchange records: %w", err)
	}
	s.logger.Debug().Str("cutoff", cutoff.Format(time.RFC3339)).Msg("Purged old exchange records")
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
