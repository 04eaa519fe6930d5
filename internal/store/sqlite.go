package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"meetrecap/internal/models"
)

// SQLite is a durable Store for deployments that want records to outlive
// the process. Same append-only contract as Memory; selected via the
// "store" setting in config.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite connects to the database at path (":memory:" works for tests)
// and ensures the schema is present.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path must be provided")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transcripts (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			filename TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			id TEXT PRIMARY KEY,
			transcript_id TEXT NOT NULL,
			prompt TEXT NOT NULL,
			content TEXT NOT NULL,
			edited_content TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			FOREIGN KEY(transcript_id) REFERENCES transcripts(id)
		)`,
		`CREATE TABLE IF NOT EXISTS email_shares (
			id TEXT PRIMARY KEY,
			summary_id TEXT NOT NULL,
			recipients TEXT NOT NULL,
			subject TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			include_transcript INTEGER NOT NULL DEFAULT 0,
			sent_at DATETIME NOT NULL,
			FOREIGN KEY(summary_id) REFERENCES summaries(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_transcript ON summaries(transcript_id)`,
		`CREATE INDEX IF NOT EXISTS idx_email_shares_summary ON email_shares(summary_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLite) CreateTranscript(content, filename string) (*models.Transcript, error) {
	t := &models.Transcript{
		ID:        uuid.New().String(),
		Content:   content,
		Filename:  filename,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO transcripts (id, content, filename, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Content, t.Filename, t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transcript: %w", err)
	}
	return t, nil
}

func (s *SQLite) GetTranscript(id string) (*models.Transcript, bool) {
	var t models.Transcript
	err := s.db.QueryRow(
		`SELECT id, content, filename, created_at FROM transcripts WHERE id = ?`, id,
	).Scan(&t.ID, &t.Content, &t.Filename, &t.CreatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("get transcript %s: %v", id, err)
		}
		return nil, false
	}
	return &t, true
}

func (s *SQLite) CreateSummary(transcriptID, prompt, content string) (*models.Summary, error) {
	sum := &models.Summary{
		ID:           uuid.New().String(),
		TranscriptID: transcriptID,
		Prompt:       prompt,
		Content:      content,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO summaries (id, transcript_id, prompt, content, edited_content, created_at)
		 VALUES (?, ?, ?, ?, '', ?)`,
		sum.ID, sum.TranscriptID, sum.Prompt, sum.Content, sum.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert summary: %w", err)
	}
	return sum, nil
}

func (s *SQLite) GetSummary(id string) (*models.Summary, bool) {
	var sum models.Summary
	err := s.db.QueryRow(
		`SELECT id, transcript_id, prompt, content, edited_content, created_at
		 FROM summaries WHERE id = ?`, id,
	).Scan(&sum.ID, &sum.TranscriptID, &sum.Prompt, &sum.Content, &sum.EditedContent, &sum.CreatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("get summary %s: %v", id, err)
		}
		return nil, false
	}
	return &sum, true
}

func (s *SQLite) UpdateSummaryContent(id, editedContent string) (*models.Summary, bool) {
	res, err := s.db.Exec(`UPDATE summaries SET edited_content = ? WHERE id = ?`, editedContent, id)
	if err != nil {
		log.Printf("update summary %s: %v", id, err)
		return nil, false
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return nil, false
	}
	return s.GetSummary(id)
}

func (s *SQLite) SummariesByTranscript(transcriptID string) []*models.Summary {
	rows, err := s.db.Query(
		`SELECT id, transcript_id, prompt, content, edited_content, created_at
		 FROM summaries WHERE transcript_id = ? ORDER BY rowid`, transcriptID,
	)
	if err != nil {
		log.Printf("list summaries for %s: %v", transcriptID, err)
		return nil
	}
	defer rows.Close()

	out := make([]*models.Summary, 0)
	for rows.Next() {
		var sum models.Summary
		if err := rows.Scan(&sum.ID, &sum.TranscriptID, &sum.Prompt, &sum.Content, &sum.EditedContent, &sum.CreatedAt); err != nil {
			log.Printf("scan summary row: %v", err)
			continue
		}
		out = append(out, &sum)
	}
	return out
}

func (s *SQLite) CreateEmailShare(summaryID, recipients, subject, message string, includeTranscript bool) (*models.EmailShare, error) {
	e := &models.EmailShare{
		ID:                uuid.New().String(),
		SummaryID:         summaryID,
		Recipients:        recipients,
		Subject:           subject,
		Message:           message,
		IncludeTranscript: includeTranscript,
		SentAt:            time.Now().UTC(),
	}
	include := 0
	if includeTranscript {
		include = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO email_shares (id, summary_id, recipients, subject, message, include_transcript, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SummaryID, e.Recipients, e.Subject, e.Message, include, e.SentAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert email share: %w", err)
	}
	return e, nil
}

func (s *SQLite) SharesBySummary(summaryID string) []*models.EmailShare {
	rows, err := s.db.Query(
		`SELECT id, summary_id, recipients, subject, message, include_transcript, sent_at
		 FROM email_shares WHERE summary_id = ? ORDER BY rowid`, summaryID,
	)
	if err != nil {
		log.Printf("list shares for %s: %v", summaryID, err)
		return nil
	}
	defer rows.Close()

	out := make([]*models.EmailShare, 0)
	for rows.Next() {
		var e models.EmailShare
		var include int
		if err := rows.Scan(&e.ID, &e.SummaryID, &e.Recipients, &e.Subject, &e.Message, &include, &e.SentAt); err != nil {
			log.Printf("scan share row: %v", err)
			continue
		}
		e.IncludeTranscript = include != 0
		out = append(out, &e)
	}
	return out
}
