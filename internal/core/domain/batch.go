package domain

// BatchResult is the outcome of a batch submission at one stage.
type BatchResult struct {
	Stage        Stage             `json:"stage"`
	SucceededIDs []string          `json:"succeededIds"`
	BlockedIDs   []string          `json:"blockedIds"`
	Errors       map[string]string `json:"errors,omitempty"` // application id -> failure
	Readiness    BatchReadiness    `json:"readiness"`
}
