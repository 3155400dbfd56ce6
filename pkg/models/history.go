package models

import "time"

// Generation outcome values stored in the history.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// GenerationRecord is one served GenerateText call.
type GenerationRecord struct {
	ID        int64     `json:"id"`
	Type      int       `json:"type"`
	Count     int       `json:"count"`
	ElapsedMs float64   `json:"elapsed_ms"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GenerationSummary aggregates history by content type.
type GenerationSummary struct {
	Type         int     `json:"type"`
	RequestCount int     `json:"request_count"`
	ErrorCount   int     `json:"error_count"`
	AvgElapsedMs float64 `json:"avg_elapsed_ms"`
	MaxElapsedMs float64 `json:"max_elapsed_ms"`
}
