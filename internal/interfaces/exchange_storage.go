package interfaces

import (
	"context"

	"github.com/ternarybob/docinsight/internal/models"
)

// ExchangeStorage persists question/answer audit records
type ExchangeStorage interface {
	SaveExchange(ctx context.Context, record *models.ExchangeRecord) error
	ListRecent(ctx context.Context, limit int) ([]models.ExchangeRecord, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.ExchangeRecord, error)
	Count(ctx context.Context) (int, error)
}
