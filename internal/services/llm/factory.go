package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/common"
	"github.com/ternarybob/docinsight/internal/httpclient"
	"github.com/ternarybob/docinsight/internal/interfaces"
)

// GeminiCredentials resolves the Gemini key from the environment first, then the config file
func GeminiCredentials(config *common.Config) interfaces.CredentialSource {
	return ChainCredentials{
		EnvCredentials{Vars: GeminiKeyEnvVars},
		StaticCredentials(config.Gemini.APIKey),
	}
}

// ClaudeCredentials resolves the Anthropic key from the environment first, then the config file
func ClaudeCredentials(config *common.Config) interfaces.CredentialSource {
	return ChainCredentials{
		EnvCredentials{Vars: ClaudeKeyEnvVars},
		StaticCredentials(config.Claude.APIKey),
	}
}

// NewAnswerEngine builds the engine for the configured default provider.
// A missing key is not an error here; it surfaces as a credentials failure on the first question.
func NewAnswerEngine(config *common.Config, logger arbor.ILogger) (interfaces.AnswerEngine, error) {
	client := httpclient.NewOutboundClient("DocInsight/" + common.GetVersion())

	switch config.LLM.DefaultProvider {
	case common.LLMProviderGemini, "":
		return NewGeminiEngine(config.Gemini, GeminiCredentials(config), logger).WithHTTPClient(client), nil
	case common.LLMProviderClaude:
		return NewClaudeEngine(config.Claude, ClaudeCredentials(config), logger).WithHTTPClient(client), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.LLM.DefaultProvider)
	}
}
