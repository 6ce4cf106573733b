package models

// AnalysisErrorKind classifies a failed inference call
type AnalysisErrorKind string

const (
	AnalysisErrorCredentials AnalysisErrorKind = "credentials"
	AnalysisErrorService     AnalysisErrorKind = "service"
)

// User-facing messages for the two failure kinds
const (
	CredentialsErrorMessage = "Invalid or missing API Key. Please ensure your environment is configured correctly."
	ServiceErrorMessage     = "Failed to communicate with the document analysis engine."
)

// AnalysisError is the classified failure stored on a session and shown as a dismissible banner
type AnalysisError struct {
	Kind    AnalysisErrorKind `json:"kind"`
	Message string            `json:"message"`
}

func (e *AnalysisError) Error() string {
	return e.Message
}

// NewCredentialsError returns the fixed credentials failure
func NewCredentialsError() *AnalysisError {
	return &AnalysisError{Kind: AnalysisErrorCredentials, Message: CredentialsErrorMessage}
}

// NewServiceError returns the fixed service failure
func NewServiceError() *AnalysisError {
	return &AnalysisError{Kind: AnalysisErrorService, Message: ServiceErrorMessage}
}
