package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/interfaces"
	"github.com/ternarybob/docinsight/internal/models"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditHandler exposes recent question/answer exchanges
type AuditHandler struct {
	storage interfaces.ExchangeStorage
	logger  arbor.ILogger
}

// NewAuditHandler creates the handler. A nil storage means auditing is disabled.
func NewAuditHandler(storage interfaces.ExchangeStorage, logger arbor.ILogger) *AuditHandler {
	return &AuditHandler{storage: storage, logger: logger}
}

// ListHandler serves GET /api/audit?limit=N[&session_id=...]
func (h *AuditHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if h.storage == nil {
		WriteError(w, http.StatusServiceUnavailable, "Audit log is disabled")
		return
	}

	limit := GetLimitParam(r, defaultAuditLimit, maxAuditLimit)
	sessionID := r.URL.Query().Get("session_id")

	var (
		records []models.ExchangeRecord
		err     error
	)
	if sessionID != "" {
		records, err = h.storage.ListBySession(r.Context(), sessionID, limit)
	} else {
		records, err = h.storage.ListRecent(r.Context(), limit)
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list exchange records")
		WriteError(w, http.StatusInternalServerError, "Failed to list exchange records")
		return
	}

	total, err := h.storage.Count(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to count exchange records")
	}

	if records == nil {
		records = []models.ExchangeRecord{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"total":   total,
	})
}
