package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"meetrecap/internal/models"
)

// Memory is the default process-local Store. Nothing survives a restart.
// A single RWMutex guards all three maps; writes are short enough that
// finer-grained locking buys nothing here.
type Memory struct {
	mu          sync.RWMutex
	transcripts map[string]*models.Transcript
	summaries   map[string]*models.Summary
	shares      map[string]*models.EmailShare

	summaryOrder []string
	shareOrder   []string
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		transcripts: make(map[string]*models.Transcript),
		summaries:   make(map[string]*models.Summary),
		shares:      make(map[string]*models.EmailShare),
	}
}

func (m *Memory) CreateTranscript(content, filename string) (*models.Transcript, error) {
	t := &models.Transcript{
		ID:        uuid.New().String(),
		Content:   content,
		Filename:  filename,
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.transcripts[t.ID] = t
	m.mu.Unlock()
	return cloneTranscript(t), nil
}

func (m *Memory) GetTranscript(id string) (*models.Transcript, bool) {
	m.mu.RLock()
	t, ok := m.transcripts[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneTranscript(t), true
}

func (m *Memory) CreateSummary(transcriptID, prompt, content string) (*models.Summary, error) {
	s := &models.Summary{
		ID:           uuid.New().String(),
		TranscriptID: transcriptID,
		Prompt:       prompt,
		Content:      content,
		CreatedAt:    time.Now().UTC(),
	}
	m.mu.Lock()
	m.summaries[s.ID] = s
	m.summaryOrder = append(m.summaryOrder, s.ID)
	m.mu.Unlock()
	return cloneSummary(s), nil
}

func (m *Memory) GetSummary(id string) (*models.Summary, bool) {
	m.mu.RLock()
	s, ok := m.summaries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneSummary(s), true
}

func (m *Memory) UpdateSummaryContent(id, editedContent string) (*models.Summary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.summaries[id]
	if !ok {
		return nil, false
	}
	s.EditedContent = editedContent
	return cloneSummary(s), true
}

func (m *Memory) SummariesByTranscript(transcriptID string) []*models.Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Summary, 0)
	for _, id := range m.summaryOrder {
		if s := m.summaries[id]; s != nil && s.TranscriptID == transcriptID {
			out = append(out, cloneSummary(s))
		}
	}
	return out
}

func (m *Memory) CreateEmailShare(summaryID, recipients, subject, message string, includeTranscript bool) (*models.EmailShare, error) {
	e := &models.EmailShare{
		ID:                uuid.New().String(),
		SummaryID:         summaryID,
		Recipients:        recipients,
		Subject:           subject,
		Message:           message,
		IncludeTranscript: includeTranscript,
		SentAt:            time.Now().UTC(),
	}
	m.mu.Lock()
	m.shares[e.ID] = e
	m.shareOrder = append(m.shareOrder, e.ID)
	m.mu.Unlock()
	return cloneShare(e), nil
}

func (m *Memory) SharesBySummary(summaryID string) []*models.EmailShare {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.EmailShare, 0)
	for _, id := range m.shareOrder {
		if e := m.shares[id]; e != nil && e.SummaryID == summaryID {
			out = append(out, cloneShare(e))
		}
	}
	return out
}

// Copies keep callers from mutating stored entities behind the lock.

func cloneTranscript(t *models.Transcript) *models.Transcript {
	cp := *t
	return &cp
}

func cloneSummary(s *models.Summary) *models.Summary {
	cp := *s
	return &cp
}

func cloneShare(e *models.EmailShare) *models.EmailShare {
	cp := *e
	return &cp
}
