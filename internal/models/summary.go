package models

import "time"

// Summary is an AI-generated condensation of a transcript under a user
// prompt. Content holds the raw model output and is never rewritten;
// EditedContent carries the user's override and may change any number of
// times.
type Summary struct {
	ID            string    `json:"id"`
	TranscriptID  string    `json:"transcript_id"`
	Prompt        string    `json:"prompt"`
	Content       string    `json:"content"`
	EditedContent string    `json:"edited_content,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// EffectiveContent returns what should be displayed or mailed: the user's
// edit when present, the model output otherwise.
func (s *Summary) EffectiveContent() string {
	if s.EditedContent != "" {
		return s.EditedContent
	}
	return s.Content
}
