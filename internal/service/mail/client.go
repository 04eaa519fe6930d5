package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const mailKeyEnv = "RESEND_API_KEY"

// Attachment is a file carried with an outbound email. Content is
// base64-encoded, per the provider's wire format.
type Attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Message is one outbound email.
type Message struct {
	From        string       `json:"from"`
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Client talks to the Resend HTTP API. The API key is read from the
// environment on every send.
type Client struct {
	BaseURL string
	Client  *http.Client
}

// NewClient builds a mail client; baseURL is overridable so tests can point
// it at a local server.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Send delivers the message synchronously. A non-2xx response surfaces the
// provider's own error text.
func (c *Client) Send(ctx context.Context, msg Message) error {
	key := os.Getenv(mailKeyEnv)
	if key == "" {
		return fmt.Errorf("mail provider key not configured: set %s", mailKeyEnv)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mail provider returned %d: %s", resp.StatusCode, providerMessage(resp.Body))
	}
	return nil
}

// providerMessage pulls the human-readable error out of the provider's
// response body, falling back to the raw text.
func providerMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "no response body"
	}
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return strings.TrimSpace(string(raw))
}
