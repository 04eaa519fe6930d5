package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"meetrecap/internal/service/ai"
	"meetrecap/internal/service/mail"
	"meetrecap/internal/service/summary"
	"meetrecap/internal/store"
)

type stubGenerator struct {
	text     string
	provider string
	err      error
	calls    int
}

func (s *stubGenerator) Generate(ctx context.Context, transcript, prompt string) (string, string, error) {
	s.calls++
	if s.err != nil {
		return "", "", s.err
	}
	return s.text, s.provider, nil
}

// mailCapture records what the real mail client sent to the fake provider.
type mailCapture struct {
	requests []mail.Message
	status   int
	body     string
}

func newTestServer(t *testing.T, gen summary.Generator) (*gin.Engine, *mailCapture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("RESEND_API_KEY", "re_test_key")

	capture := &mailCapture{status: http.StatusOK}
	mailSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg mail.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Errorf("decode mail payload: %v", err)
		}
		capture.requests = append(capture.requests, msg)
		w.WriteHeader(capture.status)
		if capture.body != "" {
			_, _ = w.Write([]byte(capture.body))
		}
	}))
	t.Cleanup(mailSrv.Close)

	st := store.NewMemory()
	summaries := summary.NewService(st, gen)
	dispatcher := mail.NewDispatcher(st, mail.NewClient(mailSrv.URL), "Recap <recap@example.com>")
	handler := NewHandler(summaries, dispatcher, t.TempDir(), 10<<20)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router, capture
}

func doJSONRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doUpload(t *testing.T, router *gin.Engine, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/transcripts/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode json: %v", err)
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("unexpected status %d (want %d), body: %s", rec.Code, want, rec.Body.String())
	}
}

func TestTranscriptSummaryEmailFlow(t *testing.T) {
	gen := &stubGenerator{text: "- Ship by Friday", provider: "openai"}
	router, capture := newTestServer(t, gen)

	transcriptText := "Alice: ship by Friday."
	resp := doJSONRequest(t, router, http.MethodPost, "/api/transcripts", map[string]string{
		"content": transcriptText,
	})
	assertStatus(t, resp, http.StatusCreated)
	var transcript struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp.Body.Bytes(), &transcript)
	if transcript.ID == "" {
		t.Fatalf("expected transcript id")
	}

	resp = doJSONRequest(t, router, http.MethodPost, "/api/summaries", map[string]string{
		"transcriptId": transcript.ID,
		"prompt":       "list action items",
	})
	assertStatus(t, resp, http.StatusCreated)
	var sum struct {
		ID           string `json:"id"`
		TranscriptID string `json:"transcript_id"`
		Content      string `json:"content"`
	}
	decodeJSON(t, resp.Body.Bytes(), &sum)
	if sum.TranscriptID != transcript.ID || sum.Content != "- Ship by Friday" {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	edited := "- Ship by Friday (owner: Alice)"
	resp = doJSONRequest(t, router, http.MethodPatch, "/api/summaries/"+sum.ID, map[string]string{
		"editedContent": edited,
	})
	assertStatus(t, resp, http.StatusOK)

	resp = doJSONRequest(t, router, http.MethodPost, "/api/email/send", map[string]any{
		"summaryId":         sum.ID,
		"recipients":        []string{"a@x.com"},
		"subject":           "Meeting recap",
		"includeTranscript": true,
	})
	assertStatus(t, resp, http.StatusCreated)
	var share struct {
		Recipients string `json:"recipients"`
	}
	decodeJSON(t, resp.Body.Bytes(), &share)
	var recipients []string
	decodeJSON(t, []byte(share.Recipients), &recipients)
	if len(recipients) != 1 || recipients[0] != "a@x.com" {
		t.Fatalf("share recipients must decode to the input list, got %v", recipients)
	}

	if len(capture.requests) != 1 {
		t.Fatalf("expected exactly one mail call, got %d", len(capture.requests))
	}
	sent := capture.requests[0]
	if !strings.Contains(sent.Text, edited) {
		t.Fatalf("mail body must carry the edited content: %q", sent.Text)
	}
	if len(sent.Attachments) != 1 {
		t.Fatalf("expected transcript attachment")
	}
	decoded, err := base64.StdEncoding.DecodeString(sent.Attachments[0].Content)
	if err != nil {
		t.Fatalf("attachment not base64: %v", err)
	}
	if string(decoded) != transcriptText {
		t.Fatalf("attachment %q != transcript %q", decoded, transcriptText)
	}

	// The share shows up in the audit listing.
	resp = doJSONRequest(t, router, http.MethodGet, "/api/summaries/"+sum.ID+"/shares", nil)
	assertStatus(t, resp, http.StatusOK)
	var shares struct {
		Shares []json.RawMessage `json:"shares"`
	}
	decodeJSON(t, resp.Body.Bytes(), &shares)
	if len(shares.Shares) != 1 {
		t.Fatalf("expected one share record, got %d", len(shares.Shares))
	}
}

func TestUploadTranscript(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{text: "s", provider: "openai"})

	content := "Bob: agenda.\nAlice: notes."
	resp := doUpload(t, router, "meeting.txt", content)
	assertStatus(t, resp, http.StatusCreated)
	var transcript struct {
		ID       string `json:"id"`
		Content  string `json:"content"`
		Filename string `json:"filename"`
	}
	decodeJSON(t, resp.Body.Bytes(), &transcript)
	if transcript.Filename != "meeting.txt" {
		t.Fatalf("filename not recorded: %q", transcript.Filename)
	}
	if !strings.Contains(transcript.Content, "Bob: agenda.") {
		t.Fatalf("uploaded content not extracted: %q", transcript.Content)
	}

	// Non-.txt uploads are rejected.
	resp = doUpload(t, router, "meeting.pdf", "%PDF-1.4")
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestCreateSummaryMissingTranscript(t *testing.T) {
	gen := &stubGenerator{text: "s", provider: "openai"}
	router, _ := newTestServer(t, gen)

	resp := doJSONRequest(t, router, http.MethodPost, "/api/summaries", map[string]string{
		"transcriptId": "does-not-exist",
		"prompt":       "p",
	})
	assertStatus(t, resp, http.StatusNotFound)
	if gen.calls != 0 {
		t.Fatalf("missing transcript must short-circuit before the provider chain")
	}
}

func TestCreateSummaryMissingField(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{text: "s", provider: "openai"})
	resp := doJSONRequest(t, router, http.MethodPost, "/api/summaries", map[string]string{
		"transcriptId": "",
		"prompt":       "p",
	})
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestCreateSummaryNoProviderConfigured(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{err: ai.ErrNoProviderConfigured})

	resp := doJSONRequest(t, router, http.MethodPost, "/api/transcripts", map[string]string{
		"content": "some content",
	})
	assertStatus(t, resp, http.StatusCreated)
	var transcript struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp.Body.Bytes(), &transcript)

	resp = doJSONRequest(t, router, http.MethodPost, "/api/summaries", map[string]string{
		"transcriptId": transcript.ID,
		"prompt":       "p",
	})
	assertStatus(t, resp, http.StatusInternalServerError)
	if !strings.Contains(resp.Body.String(), "API_KEY") {
		t.Fatalf("operator-facing message must name the key envs: %s", resp.Body.String())
	}
}

func TestCreateSummaryAllProvidersFailed(t *testing.T) {
	genErr := fmt.Errorf("%w: openai: timeout; gemini: quota", ai.ErrAllProvidersFailed)
	router, _ := newTestServer(t, &stubGenerator{err: genErr})

	resp := doJSONRequest(t, router, http.MethodPost, "/api/transcripts", map[string]string{
		"content": "some content",
	})
	var transcript struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp.Body.Bytes(), &transcript)

	resp = doJSONRequest(t, router, http.MethodPost, "/api/summaries", map[string]string{
		"transcriptId": transcript.ID,
		"prompt":       "p",
	})
	assertStatus(t, resp, http.StatusInternalServerError)
	if !strings.Contains(resp.Body.String(), "quota") {
		t.Fatalf("upstream diagnostics must be forwarded: %s", resp.Body.String())
	}
}

func TestEditSummaryValidation(t *testing.T) {
	gen := &stubGenerator{text: "original", provider: "openai"}
	router, _ := newTestServer(t, gen)

	resp := doJSONRequest(t, router, http.MethodPost, "/api/transcripts", map[string]string{
		"content": "c",
	})
	var transcript struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp.Body.Bytes(), &transcript)
	resp = doJSONRequest(t, router, http.MethodPost, "/api/summaries", map[string]string{
		"transcriptId": transcript.ID,
		"prompt":       "p",
	})
	var sum struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp.Body.Bytes(), &sum)

	// Not a string.
	resp = doJSONRequest(t, router, http.MethodPatch, "/api/summaries/"+sum.ID, map[string]any{
		"editedContent": 42,
	})
	assertStatus(t, resp, http.StatusBadRequest)

	// Missing field.
	resp = doJSONRequest(t, router, http.MethodPatch, "/api/summaries/"+sum.ID, map[string]any{})
	assertStatus(t, resp, http.StatusBadRequest)

	// Unknown id.
	resp = doJSONRequest(t, router, http.MethodPatch, "/api/summaries/nope", map[string]string{
		"editedContent": "x",
	})
	assertStatus(t, resp, http.StatusNotFound)

	// Valid edit leaves original content readable.
	resp = doJSONRequest(t, router, http.MethodPatch, "/api/summaries/"+sum.ID, map[string]string{
		"editedContent": "edited",
	})
	assertStatus(t, resp, http.StatusOK)
	resp = doJSONRequest(t, router, http.MethodGet, "/api/summaries/"+sum.ID, nil)
	assertStatus(t, resp, http.StatusOK)
	var got struct {
		Content       string `json:"content"`
		EditedContent string `json:"edited_content"`
	}
	decodeJSON(t, resp.Body.Bytes(), &got)
	if got.Content != "original" || got.EditedContent != "edited" {
		t.Fatalf("unexpected summary state: %+v", got)
	}
}

func TestSendEmailInvalidRecipients(t *testing.T) {
	gen := &stubGenerator{text: "s", provider: "openai"}
	router, capture := newTestServer(t, gen)

	resp := doJSONRequest(t, router, http.MethodPost, "/api/transcripts", map[string]string{"content": "c"})
	var transcript struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp.Body.Bytes(), &transcript)
	resp = doJSONRequest(t, router, http.MethodPost, "/api/summaries", map[string]string{
		"transcriptId": transcript.ID,
		"prompt":       "p",
	})
	var sum struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp.Body.Bytes(), &sum)

	resp = doJSONRequest(t, router, http.MethodPost, "/api/email/send", map[string]any{
		"summaryId":  sum.ID,
		"recipients": []string{},
		"subject":    "s",
	})
	assertStatus(t, resp, http.StatusBadRequest)

	resp = doJSONRequest(t, router, http.MethodPost, "/api/email/send", map[string]any{
		"summaryId":  sum.ID,
		"recipients": "not json",
		"subject":    "s",
	})
	assertStatus(t, resp, http.StatusBadRequest)

	if len(capture.requests) != 0 {
		t.Fatalf("mail provider must not be called for invalid recipients")
	}
}

func TestSendEmailAcceptsEncodedRecipientList(t *testing.T) {
	gen := &stubGenerator{text: "s", provider: "openai"}
	router, _ := newTestServer(t, gen)

	resp := doJSONRequest(t, router, http.MethodPost, "/api/transcripts", map[string]string{"content": "c"})
	var transcript struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp.Body.Bytes(), &transcript)
	resp = doJSONRequest(t, router, http.MethodPost, "/api/summaries", map[string]string{
		"transcriptId": transcript.ID,
		"prompt":       "p",
	})
	var sum struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp.Body.Bytes(), &sum)

	// Clients that pre-serialize the list send it as a JSON string.
	resp = doJSONRequest(t, router, http.MethodPost, "/api/email/send", map[string]any{
		"summaryId":  sum.ID,
		"recipients": `["a@x.com","b@y.com"]`,
		"subject":    "s",
	})
	assertStatus(t, resp, http.StatusCreated)
}

func TestSendEmailProviderError(t *testing.T) {
	gen := &stubGenerator{text: "s", provider: "openai"}
	router, capture := newTestServer(t, gen)
	capture.status = http.StatusBadGateway
	capture.body = `{"message":"downstream unavailable"}`

	resp := doJSONRequest(t, router, http.MethodPost, "/api/transcripts", map[string]string{"content": "c"})
	var transcript struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp.Body.Bytes(), &transcript)
	resp = doJSONRequest(t, router, http.MethodPost, "/api/summaries", map[string]string{
		"transcriptId": transcript.ID,
		"prompt":       "p",
	})
	var sum struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp.Body.Bytes(), &sum)

	resp = doJSONRequest(t, router, http.MethodPost, "/api/email/send", map[string]any{
		"summaryId":  sum.ID,
		"recipients": []string{"a@x.com"},
		"subject":    "s",
	})
	assertStatus(t, resp, http.StatusInternalServerError)
	if !strings.Contains(resp.Body.String(), "downstream unavailable") {
		t.Fatalf("provider message must be forwarded: %s", resp.Body.String())
	}

	// No share record after a failed send.
	resp = doJSONRequest(t, router, http.MethodGet, "/api/summaries/"+sum.ID+"/shares", nil)
	assertStatus(t, resp, http.StatusOK)
	var shares struct {
		Shares []json.RawMessage `json:"shares"`
	}
	decodeJSON(t, resp.Body.Bytes(), &shares)
	if len(shares.Shares) != 0 {
		t.Fatalf("failed send must not persist a share")
	}
}

func TestSendEmailUnknownSummary(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{text: "s", provider: "openai"})
	resp := doJSONRequest(t, router, http.MethodPost, "/api/email/send", map[string]any{
		"summaryId":  "missing",
		"recipients": []string{"a@x.com"},
		"subject":    "s",
	})
	assertStatus(t, resp, http.StatusNotFound)
}

func TestGetTranscriptNotFound(t *testing.T) {
	router, _ := newTestServer(t, &stubGenerator{})
	resp := doJSONRequest(t, router, http.MethodGet, "/api/transcripts/missing", nil)
	assertStatus(t, resp, http.StatusNotFound)
}
