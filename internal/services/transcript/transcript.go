package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/interfaces"
	"github.com/ternarybob/docinsight/internal/models"
)

// Service exports a session conversation as markdown or PDF
type Service struct {
	pdf    interfaces.PDFService
	clock  interfaces.Clock
	logger arbor.ILogger
}

func NewService(pdf interfaces.PDFService, clock interfaces.Clock, logger arbor.ILogger) *Service {
	return &Service{pdf: pdf, clock: clock, logger: logger}
}

// Markdown returns the transcript of snapshot in markdown
func (s *Service) Markdown(snapshot models.SessionSnapshot) string {
	return BuildMarkdown(snapshot, s.clock.Now())
}

// PDF returns the transcript of snapshot rendered to PDF
func (s *Service) PDF(snapshot models.SessionSnapshot) ([]byte, error) {
	md := s.Markdown(snapshot)

	title := "DocInsight Transcript"
	if snapshot.Document != nil {
		title = snapshot.Document.Name
	}

	data, err := s.pdf.ConvertMarkdownToPDF(md, title)
	if err != nil {
		return nil, fmt.Errorf("failed to render transcript PDF: %w", err)
	}

	s.logger.Info().
		Str("session_id", snapshot.ID).
		Int("messages", len(snapshot.Messages)).
		Int("pdf_size", len(data)).
		Msg("Transcript exported")

	return data, nil
}

// BuildMarkdown writes the document header followed by every message in order.
// Message text is copied verbatim so assistant markdown keeps its formatting.
func BuildMarkdown(snapshot models.SessionSnapshot, exportedAt time.Time) string {
	var sb strings.Builder

	sb.WriteString("# DocInsight Transcript\n\n")

	if doc := snapshot.Document; doc != nil {
		fmt.Fprintf(&sb, "- **Document:** %s\n", doc.Name)
		fmt.Fprintf(&sb, "- **Size:** %s\n", doc.SizeLabel)
		if doc.PageCount > 0 {
			fmt.Fprintf(&sb, "- **Pages:** %d\n", doc.PageCount)
		} else {
			sb.WriteString("- **Pages:** unknown\n")
		}
	} else {
		sb.WriteString("- **Document:** none\n")
	}
	fmt.Fprintf(&sb, "- **Exported:** %s\n", exportedAt.UTC().Format(time.RFC3339))

	for _, msg := range snapshot.Messages {
		sb.WriteString("\n---\n\n")
		fmt.Fprintf(&sb, "## %s (%s)\n\n", roleLabel(msg.Role), msg.Timestamp.UTC().Format(time.RFC3339))
		sb.WriteString(strings.TrimSpace(msg.Text))
		sb.WriteString("\n")
	}

	return sb.String()
}

func roleLabel(role models.MessageRole) string {
	if role == models.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
