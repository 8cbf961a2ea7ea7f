// Package receipt extracts a best-effort expense draft from an uploaded
// receipt file. The draft is presentation input only: whatever the client
// submits after editing goes through the same validation as a manually
// typed expense.
package receipt

import "context"

// Draft is a partial expense pre-filled from a receipt. Zero values mean
// the field could not be read.
type Draft struct {
	Amount      float64 `json:"amount,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	Date        string  `json:"date,omitempty"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// Extractor produces an expense draft from a receipt file (PDF or image).
type Extractor interface {
	Extract(ctx context.Context, path string) (*Draft, error)
}
