package models

// ClaimStatus is the backend job state as observed by the polling client.
// Anything other than completed/failed is treated as still pending.
type ClaimStatus string

const (
	ClaimPending   ClaimStatus = "pending"
	ClaimCompleted ClaimStatus = "completed"
	ClaimFailed    ClaimStatus = "failed"
)

// ClaimSubmission is the payload sent to the backend claim API.
type ClaimSubmission struct {
	Text      string `json:"text,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	Language  string `json:"language,omitempty"`
}

// ClaimReceipt is the backend's acknowledgement of a submission.
type ClaimReceipt struct {
	ClaimID string `json:"claim_id"`
	Status  string `json:"status"`
}

// ClaimResult is a single poll response. Result is only populated once the
// status is completed; the client never owns the authoritative job state.
type ClaimResult struct {
	ClaimID string          `json:"claim_id"`
	Status  ClaimStatus     `json:"status"`
	Error   string          `json:"error,omitempty"`
	Result  *AnalysisResult `json:"result,omitempty"`
}
