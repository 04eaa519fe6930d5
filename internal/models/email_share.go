package models

import "time"

// EmailShare records one completed email dispatch of a summary. Created
// only after the mail provider accepted the send, never mutated afterwards.
type EmailShare struct {
	ID                string    `json:"id"`
	SummaryID         string    `json:"summary_id"`
	Recipients        string    `json:"recipients"` // JSON array stored as string
	Subject           string    `json:"subject"`
	Message           string    `json:"message,omitempty"`
	IncludeTranscript bool      `json:"include_transcript"`
	SentAt            time.Time `json:"sent_at"`
}
