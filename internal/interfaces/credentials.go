package interfaces

import "context"

// CredentialSource resolves the API key for an inference provider at call time
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}
