package templates

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPage_Embedded(t *testing.T) {
	page, err := GetPage("index", "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, page.Execute(&buf, map[string]interface{}{
		"AdvisoryLimitMB": 20,
		"Provider":        "gemini",
		"Model":           "gemini-3-pro-preview",
		"Version":         "dev",
	}))
	assert.Contains(t, buf.String(), "DocInsight")
	assert.Contains(t, buf.String(), "20MB")
}

func TestGetPage_UserOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>custom {{.Version}}</p>"), 0o644))

	page, err := GetPage("index", dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, page.Execute(&buf, map[string]string{"Version": "1.2.3"}))
	assert.Equal(t, "<p>custom 1.2.3</p>", buf.String())
}

func TestGetPage_Missing(t *testing.T) {
	_, err := GetPage("nope", t.TempDir())
	assert.Error(t, err)
}

func TestListEmbeddedPages(t *testing.T) {
	names, err := ListEmbeddedPages()
	require.NoError(t, err)
	assert.Contains(t, names, "index")
}
