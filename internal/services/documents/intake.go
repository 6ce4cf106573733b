package documents

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/common"
	"github.com/ternarybob/docinsight/internal/interfaces"
	"github.com/ternarybob/docinsight/internal/models"
)

// ErrUnsupportedMediaType is returned for any upload not declared as application/pdf
var ErrUnsupportedMediaType = errors.New("unsupported media type: only PDF documents are accepted")

// Intake turns uploaded files into immutable Documents
type Intake struct {
	inspector interfaces.PDFInspector
	clock     interfaces.Clock
	logger    arbor.ILogger
}

// NewIntake creates a new intake. inspector may be nil, in which case page counts are left at 0.
func NewIntake(inspector interfaces.PDFInspector, clock interfaces.Clock, logger arbor.ILogger) *Intake {
	return &Intake{inspector: inspector, clock: clock, logger: logger}
}

// FromUpload reads r fully and builds a Document. Only the declared media type decides acceptance;
// the bytes are not sniffed and size is never enforced here.
func (i *Intake) FromUpload(name, declaredType string, r io.Reader) (*models.Document, error) {
	if !isPDF(declaredType) {
		i.logger.Warn().
			Str("name", name).
			Str("media_type", declaredType).
			Msg("Upload rejected")
		return nil, fmt.Errorf("%w (got %q)", ErrUnsupportedMediaType, declaredType)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	doc := &models.Document{
		ID:         common.NewDocumentID(),
		Name:       filepath.Base(name),
		MediaType:  models.MediaTypePDF,
		Size:       int64(len(data)),
		UploadedAt: i.clock.Now(),
		Data:       data,
	}

	if i.inspector != nil {
		meta, err := i.inspector.Inspect(data)
		if err != nil {
			i.logger.Warn().Err(err).Str("name", doc.Name).Msg("Could not read PDF structure, page count unknown")
		} else {
			doc.PageCount = meta.PageCount
			if meta.IsEncrypted {
				i.logger.Warn().Str("name", doc.Name).Msg("PDF is encrypted, the model may not be able to read it")
			}
		}
	}

	i.logger.Info().
		Str("doc_id", doc.ID).
		Str("name", doc.Name).
		Int64("size", doc.Size).
		Int("page_count", doc.PageCount).
		Msg("Document accepted")

	return doc, nil
}

// FromFile loads a local file. The media type comes from the extension, falling back to the file header.
func (i *Intake) FromFile(path string) (*models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	mediaType, err := DetectMediaType(path, f)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind %s: %w", path, err)
	}

	return i.FromUpload(filepath.Base(path), mediaType, f)
}

// DetectMediaType reports the media type of a local file by extension, then by content sniffing
func DetectMediaType(path string, r io.Reader) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return models.MediaTypePDF, nil
	}
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		return byExt, nil
	}

	header := make([]byte, 512)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	return http.DetectContentType(header[:n]), nil
}

func isPDF(declared string) bool {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return false
	}
	return mediaType == models.MediaTypePDF
}
