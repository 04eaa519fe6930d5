package models

import "time"

// Transcript is the stored text of a meeting conversation. Immutable once
// created; summaries reference it by id.
type Transcript struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Filename  string    `json:"filename,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
