package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/services/conversation"
	"github.com/ternarybob/docinsight/internal/services/documents"
	"github.com/ternarybob/docinsight/internal/services/transcript"
)

// multipartMemory is how much of an upload is buffered in memory before spilling to temp files
const multipartMemory = 32 << 20

// SessionHandler serves the conversation API
type SessionHandler struct {
	manager         *conversation.Manager
	intake          *documents.Intake
	transcripts     *transcript.Service
	maxRequestBytes int64
	logger          arbor.ILogger
}

// NewSessionHandler creates the session API handler. maxRequestBytes of 0 leaves uploads uncapped.
func NewSessionHandler(
	manager *conversation.Manager,
	intake *documents.Intake,
	transcripts *transcript.Service,
	maxRequestBytes int64,
	logger arbor.ILogger,
) *SessionHandler {
	return &SessionHandler{
		manager:         manager,
		intake:          intake,
		transcripts:     transcripts,
		maxRequestBytes: maxRequestBytes,
		logger:          logger,
	}
}

type questionRequest struct {
	Text string `json:"text"`
}

// session resolves the controller for the request path, writing 404 when it does not exist
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*conversation.Controller, bool) {
	id, _ := SessionPath(r.URL.Path)
	ctrl, err := h.manager.Get(id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return ctrl, true
}

// CreateHandler starts a new empty session
func (h *SessionHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	ctrl := h.manager.Create(r.Context())
	WriteJSON(w, http.StatusCreated, ctrl.Snapshot())
}

// ListHandler returns every live session
func (h *SessionHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": h.manager.List(),
	})
}

// GetHandler returns the session snapshot
func (h *SessionHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, ctrl.Snapshot())
}

// DeleteHandler drops the session
func (h *SessionHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := SessionPath(r.URL.Path)
	if err := h.manager.Delete(id); err != nil {
		WriteError(w, http.StatusNotFound, "Session not found")
		return
	}
	WriteSuccess(w, "Session deleted")
}

// UploadHandler accepts a multipart "file" field and loads it as the session document
func (h *SessionHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	if h.maxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		WriteError(w, http.StatusBadRequest, "Expected a multipart form with a 'file' field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing 'file' field")
		return
	}
	defer file.Close()

	doc, err := h.intake.FromUpload(header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, documents.ErrUnsupportedMediaType) {
			WriteError(w, http.StatusUnsupportedMediaType, "Please upload a valid PDF file.")
			return
		}
		h.logger.Error().Err(err).Str("session_id", ctrl.ID()).Msg("Failed to read upload")
		WriteError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	if err := ctrl.SelectDocument(r.Context(), doc); err != nil {
		writeControllerError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ctrl.Snapshot())
}

// QuestionHandler submits a question and responds once the answer (or failure) is in the session
func (h *SessionHandler) QuestionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := ctrl.SubmitQuestion(r.Context(), req.Text); err != nil {
		writeControllerError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ctrl.Snapshot())
}

// ResetHandler clears the session from any state
func (h *SessionHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	ctrl.Reset(r.Context())
	WriteJSON(w, http.StatusOK, ctrl.Snapshot())
}

// DismissErrorHandler clears the error banner
func (h *SessionHandler) DismissErrorHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	ctrl.DismissError(r.Context())
	WriteJSON(w, http.StatusOK, ctrl.Snapshot())
}

// TranscriptMarkdownHandler downloads the conversation as markdown
func (h *SessionHandler) TranscriptMarkdownHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	snap := ctrl.Snapshot()
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(snap.ID, ".md"))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.transcripts.Markdown(snap)))
}

// TranscriptPDFHandler downloads the conversation as PDF
func (h *SessionHandler) TranscriptPDFHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	snap := ctrl.Snapshot()
	data, err := h.transcripts.PDF(snap)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", snap.ID).Msg("Failed to export transcript")
		WriteError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(snap.ID, ".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func attachment(sessionID, ext string) string {
	name := "transcript-" + strings.TrimPrefix(sessionID, "sess_") + ext
	return fmt.Sprintf("attachment; filename=%q", name)
}

// writeControllerError maps controller rejections to HTTP status codes
func writeControllerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, conversation.ErrEmptyQuestion):
		WriteError(w, http.StatusBadRequest, "Question must not be empty")
	case errors.Is(err, conversation.ErrNoDocument):
		WriteError(w, http.StatusConflict, "Upload a document before asking questions")
	case errors.Is(err, conversation.ErrRequestPending):
		WriteError(w, http.StatusConflict, "A request is already in progress")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
