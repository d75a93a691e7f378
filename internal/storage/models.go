package storage

import "time"

// ResultRecord is one recorded work-item outcome.
type ResultRecord struct {
	ID            string // UUID
	ExecutionID   string // Batch the item belonged to
	ItemIndex     int    // Position of the item in its batch
	ModelCategory string
	ModelName     string
	Success       bool
	OutputText    string
	RequestID     string // Provider request id, success only
	ErrorKind     string // Failure only
	ErrorMessage  string // Failure only
	InputTokens   int
	OutputTokens  int
	TotalTokens   int
	CreatedAt     time.Time
}
