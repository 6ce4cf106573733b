package transcript

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/models"
	"github.com/ternarybob/docinsight/internal/services/pdf"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var t0 = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func sampleSnapshot() models.SessionSnapshot {
	doc := &models.Document{Name: "report.pdf", Size: 524288, PageCount: 3}
	return models.SessionSnapshot{
		ID:       "sess_test",
		State:    models.SessionStateDocumentLoaded,
		Document: doc.Info(),
		Messages: []models.Message{
			{Role: models.RoleAssistant, Text: `Perfect! I've loaded "report.pdf".`, Timestamp: t0},
			{Role: models.RoleUser, Text: "What is the total?", Timestamp: t0.Add(time.Minute)},
			{Role: models.RoleAssistant, Text: "The total is **42**.", Timestamp: t0.Add(2 * time.Minute)},
		},
	}
}

func TestBuildMarkdown(t *testing.T) {
	md := BuildMarkdown(sampleSnapshot(), t0.Add(time.Hour))

	assert.True(t, strings.HasPrefix(md, "# DocInsight Transcript\n"))
	assert.Contains(t, md, "- **Document:** report.pdf")
	assert.Contains(t, md, "- **Size:** 0.50 MB")
	assert.Contains(t, md, "- **Pages:** 3")
	assert.Contains(t, md, "- **Exported:** 2026-03-01T10:30:00Z")
	assert.Contains(t, md, "## User (2026-03-01T09:31:00Z)\n\nWhat is the total?")
	assert.Contains(t, md, "The total is **42**.")

	// order preserved
	first := strings.Index(md, "What is the total?")
	second := strings.Index(md, "The total is")
	assert.Less(t, first, second)
	assert.Equal(t, 3, strings.Count(md, "\n---\n"))
}

func TestBuildMarkdown_NoDocument(t *testing.T) {
	md := BuildMarkdown(models.SessionSnapshot{ID: "sess_empty"}, t0)

	assert.Contains(t, md, "- **Document:** none")
	assert.NotContains(t, md, "## ")
}

func TestBuildMarkdown_UnknownPages(t *testing.T) {
	snap := sampleSnapshot()
	snap.Document.PageCount = 0

	assert.Contains(t, BuildMarkdown(snap, t0), "- **Pages:** unknown")
}

func TestServicePDF(t *testing.T) {
	logger := arbor.NewLogger()
	service := NewService(pdf.NewService(logger), fixedClock{t0}, logger)

	data, err := service.PDF(sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestHTMLRenderer(t *testing.T) {
	r := NewHTMLRenderer()

	out, err := r.ToHTML("The total is **42**.\n\n- a\n- b")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>42</strong>")
	assert.Contains(t, out, "<li>a</li>")

	out, err = r.ToHTML("before <script>alert(1)</script> after")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}
