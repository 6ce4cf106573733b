package llm

import (
	"strings"

	"github.com/ternarybob/docinsight/internal/models"
)

// credentialMarker is the text that identifies a credential failure in any provider error
const credentialMarker = "API key"

// ClassifyError maps an inference failure to one of the two user-facing errors.
// Anything mentioning an API key is a credentials problem, everything else a service problem.
func ClassifyError(err error) *models.AnalysisError {
	if err != nil && strings.Contains(err.Error(), credentialMarker) {
		return models.NewCredentialsError()
	}
	return models.NewServiceError()
}
