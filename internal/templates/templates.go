// Package templates provides the embedded chat page with user override support.
// Pages are loaded with resolution order:
// 1. User override: pagesDir/{name}.html
// 2. Embedded default: internal/templates/{name}.html
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
)

//go:embed *.html
var fs embed.FS

// GetPage parses a page template by name, preferring a copy in pagesDir when one exists
func GetPage(name string, pagesDir string) (*template.Template, error) {
	if pagesDir != "" {
		userPath := filepath.Join(pagesDir, name+".html")
		if data, err := os.ReadFile(userPath); err == nil {
			return parsePage(name, data)
		}
	}

	data, err := fs.ReadFile(name + ".html")
	if err != nil {
		return nil, fmt.Errorf("page '%s' not found (checked user override and embedded)", name)
	}
	return parsePage(name, data)
}

// ListEmbeddedPages returns names of all embedded pages
func ListEmbeddedPages() ([]string, error) {
	entries, err := fs.ReadDir(".")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".html"))
		}
	}
	return names, nil
}

func parsePage(name string, data []byte) (*template.Template, error) {
	t, err := template.New(name).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
	}
	return t, nil
}
