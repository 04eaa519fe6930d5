package summary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"meetrecap/internal/models"
	"meetrecap/internal/store"
)

var (
	ErrMissingField       = errors.New("missing required field")
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrSummaryNotFound    = errors.New("summary not found")
)

// Generator produces summary text for a transcript under a prompt and
// reports which backend served it. Satisfied by ai.Chain.
type Generator interface {
	Generate(ctx context.Context, transcript, prompt string) (string, string, error)
}

// Service sequences transcript lookup, AI generation and persistence.
type Service struct {
	store store.Store
	gen   Generator
}

// NewService wires the orchestrator to its store and generator.
func NewService(st store.Store, gen Generator) *Service {
	return &Service{store: st, gen: gen}
}

// CreateTranscript records pasted or extracted transcript text.
func (s *Service) CreateTranscript(content, filename string) (*models.Transcript, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content", ErrMissingField)
	}
	return s.store.CreateTranscript(content, filename)
}

// GetTranscript looks up a stored transcript.
func (s *Service) GetTranscript(id string) (*models.Transcript, bool) {
	return s.store.GetTranscript(id)
}

// Create generates a new summary for the transcript. The transcript must
// exist before any provider is contacted. Every call produces an
// independent summary record; regenerating for the same transcript is
// allowed and never deduplicated.
func (s *Service) Create(ctx context.Context, transcriptID, prompt string) (*models.Summary, error) {
	if strings.TrimSpace(transcriptID) == "" {
		return nil, fmt.Errorf("%w: transcriptId", ErrMissingField)
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt", ErrMissingField)
	}

	transcript, ok := s.store.GetTranscript(transcriptID)
	if !ok {
		return nil, ErrTranscriptNotFound
	}

	text, provider, err := s.gen.Generate(ctx, transcript.Content, prompt)
	if err != nil {
		return nil, err
	}
	log.Printf("summary for transcript %s generated by %s", transcriptID, provider)

	return s.store.CreateSummary(transcriptID, prompt, text)
}

// Edit overwrites the user-facing content of an existing summary. The
// original model output stays untouched and no re-generation happens.
func (s *Service) Edit(id, editedContent string) (*models.Summary, error) {
	updated, ok := s.store.UpdateSummaryContent(id, editedContent)
	if !ok {
		return nil, ErrSummaryNotFound
	}
	return updated, nil
}

// Get looks up a stored summary.
func (s *Service) Get(id string) (*models.Summary, bool) {
	return s.store.GetSummary(id)
}

// ListByTranscript returns all summaries for a transcript in creation order.
func (s *Service) ListByTranscript(transcriptID string) []*models.Summary {
	return s.store.SummariesByTranscript(transcriptID)
}
