package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/docinsight/internal/interfaces"
)

// ErrMissingAPIKey is returned when no credential source yields a key
var ErrMissingAPIKey = errors.New("API key not configured")

// Environment variables consulted at call time, first match wins
var (
	GeminiKeyEnvVars = []string{"DOCINSIGHT_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"}
	ClaudeKeyEnvVars = []string{"DOCINSIGHT_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"}
)

// EnvCredentials reads the key from the environment on every call
type EnvCredentials struct {
	Vars   []string
	Lookup func(string) (string, bool) // defaults to os.LookupEnv
}

var _ interfaces.CredentialSource = EnvCredentials{}

func (e EnvCredentials) APIKey(ctx context.Context) (string, error) {
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, name := range e.Vars {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", fmt.Errorf("%w (checked %s)", ErrMissingAPIKey, strings.Join(e.Vars, ", "))
}

// StaticCredentials returns a fixed key, typically from the config file
type StaticCredentials string

var _ interfaces.CredentialSource = StaticCredentials("")

func (s StaticCredentials) APIKey(ctx context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrMissingAPIKey
	}
	return string(s), nil
}

// ChainCredentials tries each source in order
type ChainCredentials []interfaces.CredentialSource

var _ interfaces.CredentialSource = ChainCredentials(nil)

func (c ChainCredentials) APIKey(ctx context.Context) (string, error) {
	for _, src := range c {
		key, err := src.APIKey(ctx)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, ErrMissingAPIKey) {
			return "", err
		}
	}
	return "", ErrMissingAPIKey
}
