package store

import "testing"

func newSQLiteStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)

	tr, err := s.CreateTranscript("Alice: ship by Friday.", "standup.txt")
	if err != nil {
		t.Fatalf("create transcript: %v", err)
	}
	got, ok := s.GetTranscript(tr.ID)
	if !ok || got.Content != tr.Content || got.Filename != "standup.txt" {
		t.Fatalf("transcript round trip failed: %+v", got)
	}

	sum, err := s.CreateSummary(tr.ID, "list action items", "- Ship by Friday")
	if err != nil {
		t.Fatalf("create summary: %v", err)
	}
	updated, ok := s.UpdateSummaryContent(sum.ID, "edited")
	if !ok || updated.EditedContent != "edited" || updated.Content != "- Ship by Friday" {
		t.Fatalf("summary update failed: %+v", updated)
	}

	share, err := s.CreateEmailShare(sum.ID, `["a@x.com"]`, "subject", "", true)
	if err != nil {
		t.Fatalf("create share: %v", err)
	}
	shares := s.SharesBySummary(sum.ID)
	if len(shares) != 1 || shares[0].ID != share.ID || !shares[0].IncludeTranscript {
		t.Fatalf("share round trip failed: %+v", shares)
	}
}

func TestSQLiteInsertionOrderAndAbsence(t *testing.T) {
	s := newSQLiteStore(t)

	tr, _ := s.CreateTranscript("content", "")
	first, _ := s.CreateSummary(tr.ID, "p1", "c1")
	second, _ := s.CreateSummary(tr.ID, "p2", "c2")

	list := s.SummariesByTranscript(tr.ID)
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("listing must preserve insertion order: %+v", list)
	}

	if _, ok := s.GetSummary("unknown"); ok {
		t.Fatalf("unknown summary must report absent")
	}
	if _, ok := s.UpdateSummaryContent("unknown", "x"); ok {
		t.Fatalf("update of unknown id must report absent without error")
	}
}
