package interfaces

// PDFService handles PDF generation from various formats
type PDFService interface {
	// ConvertMarkdownToPDF converts markdown content to a PDF byte slice
	ConvertMarkdownToPDF(markdown, title string) ([]byte, error)
}

// PDFMetadata contains metadata about a PDF document
type PDFMetadata struct {
	PageCount   int   `json:"page_count"`
	FileSize    int64 `json:"file_size"`
	IsEncrypted bool  `json:"is_encrypted"`
}

// PDFInspector reads structural metadata from raw PDF bytes
type PDFInspector interface {
	Inspect(data []byte) (*PDFMetadata, error)
}

// MarkdownRenderer renders model output for display
type MarkdownRenderer interface {
	ToHTML(markdown string) (string, error)
}
