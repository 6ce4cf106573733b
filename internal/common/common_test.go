package common

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestNewSessionID_Format(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()

	assert.True(t, strings.HasPrefix(a, "sess_"))
	assert.Len(t, a, len("sess_")+36)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(NewDocumentID(), "doc_"))
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	done := make(chan struct{})
	SafeGo(arbor.NewLogger(), "panicky", func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("goroutine did not run")
	}
}

func TestWriteCrashFile(t *testing.T) {
	old := CrashLogDir
	CrashLogDir = t.TempDir()
	defer func() { CrashLogDir = old }()

	path := WriteCrashFile("kaboom", "stack here")
	require.NotEmpty(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kaboom")
	assert.Contains(t, string(data), "stack here")
}

func TestSystemClock(t *testing.T) {
	before := time.Now()
	now := SystemClock{}.Now()
	assert.False(t, now.Before(before))
}

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, Version, info.Version)
	assert.Contains(t, GetFullVersion(), Version)
}
