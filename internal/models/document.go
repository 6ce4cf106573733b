package models

import (
	"encoding/base64"
	"fmt"
	"time"
)

// MediaTypePDF is the only declared media type accepted at upload
const MediaTypePDF = "application/pdf"

// Document is an uploaded file held in memory for the lifetime of a session.
// It is never modified after creation; a new upload replaces it wholesale.
type Document struct {
	ID         string    `json:"id"`         // doc_{uuid}
	Name       string    `json:"name"`       // Original file name as supplied by the client
	MediaType  string    `json:"media_type"` // Declared media type (always application/pdf once accepted)
	Size       int64     `json:"size"`       // Size in bytes
	PageCount  int       `json:"page_count"` // Best effort, 0 when the PDF could not be inspected
	UploadedAt time.Time `json:"uploaded_at"`

	Data []byte `json:"-"`
}

// Base64 returns the document bytes in standard base64, the form inference providers expect inline
func (d *Document) Base64() string {
	return base64.StdEncoding.EncodeToString(d.Data)
}

// SizeMB formats the size the way the status bar shows it
func (d *Document) SizeMB() string {
	return fmt.Sprintf("%.2f MB", float64(d.Size)/1024/1024)
}

// DocumentInfo is the metadata view of a Document exposed over the API
type DocumentInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MediaType  string    `json:"media_type"`
	Size       int64     `json:"size"`
	SizeLabel  string    `json:"size_label"`
	PageCount  int       `json:"page_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Info returns the metadata view, or nil for a nil document
func (d *Document) Info() *DocumentInfo {
	if d == nil {
		return nil
	}
	return &DocumentInfo{
		ID:         d.ID,
		Name:       d.Name,
		MediaType:  d.MediaType,
		Size:       d.Size,
		SizeLabel:  d.SizeMB(),
		PageCount:  d.PageCount,
		UploadedAt: d.UploadedAt,
	}
}
