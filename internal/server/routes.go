package server

import (
	"net/http"

	"github.com/ternarybob/docinsight/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Chat page
	mux.HandleFunc("/", s.app.PageHandler.ServePage)

	// API routes - Sessions
	mux.HandleFunc("/api/sessions", s.handleSessionsRoute)   // GET (list), POST (create)
	mux.HandleFunc("/api/sessions/", s.handleSessionRoutes) // /{id} and subpaths

	// API routes - Audit
	mux.HandleFunc("/api/audit", s.app.AuditHandler.ListHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

func (s *Server) handleSessionsRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, s.app.SessionHandler.ListHandler, s.app.SessionHandler.CreateHandler)
}

// handleSessionRoutes dispatches /api/sessions/{id}[/action]
func (s *Server) handleSessionRoutes(w http.ResponseWriter, r *http.Request) {
	id, action := handlers.SessionPath(r.URL.Path)
	if id == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	sh := s.app.SessionHandler
	switch action {
	case "":
		RouteResourceItem(w, r, sh.GetHandler, sh.DeleteHandler)
	case "document":
		sh.UploadHandler(w, r)
	case "questions":
		sh.QuestionHandler(w, r)
	case "reset":
		sh.ResetHandler(w, r)
	case "error":
		sh.DismissErrorHandler(w, r)
	case "transcript.md":
		sh.TranscriptMarkdownHandler(w, r)
	case "transcript.pdf":
		sh.TranscriptPDFHandler(w, r)
	case "events":
		s.app.WSHandler.HandleWebSocket(w, r)
	default:
		s.app.APIHandler.NotFoundHandler(w, r)
	}
}
