// Package persona voices the Echo: it retrieves a user's own messages and
// style profile and generates replies in their manner of writing.
package persona

import "time"

// MessageResult is one retrieved message from the user's vault.
type MessageResult struct {
	MessageID string
	Content   string
	Score     float64
}

// Insight summarizes the persona graph for one user.
type Insight struct {
	ExportCount int
	Sources     []string
	Senders     []string
	Starters    []string
}

// Stats is the per-user aggregate row maintained by the ingestion service.
type Stats struct {
	TotalMessages    int
	AccuracyScore    float64
	AvgMessageLength float64
	CommonStarters   []string
	DataSources      []string
	LastTrained      *time.Time
}

// Response is one Echo chat turn.
type Response struct {
	Reply       string
	ContextUsed []MessageResult
	Confidence  float64
}
