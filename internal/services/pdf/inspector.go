package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/interfaces"
)

// Inspector reads PDF structure with pdfcpu, entirely in memory
type Inspector struct {
	logger arbor.ILogger
}

var _ interfaces.PDFInspector = (*Inspector)(nil)

// NewInspector creates a new PDF inspector
func NewInspector(logger arbor.ILogger) *Inspector {
	return &Inspector{logger: logger}
}

// Inspect returns page count and encryption state. It fails on bytes pdfcpu cannot parse.
func (i *Inspector) Inspect(data []byte) (*interfaces.PDFMetadata, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty PDF")
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	metadata := &interfaces.PDFMetadata{
		PageCount:   pdfCtx.PageCount,
		FileSize:    int64(len(data)),
		IsEncrypted: pdfCtx.Encrypt != nil,
	}

	if metadata.PageCount == 0 {
		if n, err := api.PageCount(bytes.NewReader(data), conf); err == nil {
			metadata.PageCount = n
		}
	}

	i.logger.Debug().
		Int("page_count", metadata.PageCount).
		Int64("file_size", metadata.FileSize).
		Bool("encrypted", metadata.IsEncrypted).
		Msg("Inspected PDF")

	return metadata, nil
}
