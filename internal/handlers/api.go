package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/common"
	"github.com/ternarybob/docinsight/internal/interfaces"
)

// SessionCounter reports how many conversations are live
type SessionCounter interface {
	Count() int
}

type APIHandler struct {
	sessions SessionCounter
	engine   interfaces.AnswerEngine
	logger   arbor.ILogger
}

func NewAPIHandler(sessions SessionCounter, engine interfaces.AnswerEngine, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		sessions: sessions,
		engine:   engine,
		logger:   logger,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}

// HealthHandler returns health check status
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	resp := map[string]interface{}{
		"status": "ok",
	}
	if h.sessions != nil {
		resp["sessions"] = h.sessions.Count()
	}
	if info, ok := h.engine.(interfaces.EngineInfo); ok {
		resp["provider"] = info.Provider()
		resp["model"] = info.Model()
	}

	WriteJSON(w, http.StatusOK, resp)
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
