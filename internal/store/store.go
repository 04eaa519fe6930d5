package store

import "meetrecap/internal/models"

// Store is the persistence contract for the three entity kinds. Identity
// generation and creation timestamps live inside the implementation, not
// the caller. Lookups report absence through the boolean rather than an
// error; callers translate to their own not-found signal.
//
// All entities are append-only: there are no delete operations, and only a
// summary's edited content may change after creation.
type Store interface {
	CreateTranscript(content, filename string) (*models.Transcript, error)
	GetTranscript(id string) (*models.Transcript, bool)

	CreateSummary(transcriptID, prompt, content string) (*models.Summary, error)
	GetSummary(id string) (*models.Summary, bool)
	// UpdateSummaryContent overwrites the edited content of an existing
	// summary. Unknown id returns (nil, false) without error.
	UpdateSummaryContent(id, editedContent string) (*models.Summary, bool)
	// SummariesByTranscript returns summaries in insertion order.
	SummariesByTranscript(transcriptID string) []*models.Summary

	CreateEmailShare(summaryID, recipients, subject, message string, includeTranscript bool) (*models.EmailShare, error)
	// SharesBySummary returns completed sends in insertion order.
	SharesBySummary(summaryID string) []*models.EmailShare
}
