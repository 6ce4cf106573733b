package handlers

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/common"
	"github.com/ternarybob/docinsight/internal/interfaces"
	"github.com/ternarybob/docinsight/internal/templates"
)

// PageData is what the chat page template renders
type PageData struct {
	AdvisoryLimitMB int
	Provider        string
	Model           string
	Version         string
}

type PageHandler struct {
	logger   arbor.ILogger
	template *template.Template
	data     PageData
}

// NewPageHandler loads the chat page, preferring a pages/index.html override on disk
func NewPageHandler(engine interfaces.AnswerEngine, advisoryLimitMB int, logger arbor.ILogger) (*PageHandler, error) {
	page, err := templates.GetPage("index", findPagesDir())
	if err != nil {
		return nil, err
	}

	data := PageData{
		AdvisoryLimitMB: advisoryLimitMB,
		Version:         common.GetVersion(),
	}
	if info, ok := engine.(interfaces.EngineInfo); ok {
		data.Provider = info.Provider()
		data.Model = info.Model()
	}

	return &PageHandler{
		logger:   logger,
		template: page,
		data:     data,
	}, nil
}

// findPagesDir locates an optional pages directory with template overrides
func findPagesDir() string {
	dirs := []string{
		"./pages",  // Running from project root
		"../pages", // Running from bin/
	}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); err == nil {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}

	return ""
}

// ServePage renders the chat page at "/" and 404s everything else under it
func (h *PageHandler) ServePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, h.data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
