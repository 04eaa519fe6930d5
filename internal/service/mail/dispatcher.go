package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"

	"meetrecap/internal/models"
	"meetrecap/internal/service/summary"
	"meetrecap/internal/store"
)

var (
	ErrInvalidRecipients = errors.New("invalid recipients")
	ErrSendFailed        = errors.New("email send failed")
)

const (
	bodyHeader            = "MEETING SUMMARY"
	messageSeparator      = "----------------------------------------"
	defaultAttachmentName = "transcript.txt"
)

// Sender delivers one composed message. Satisfied by Client; tests swap in
// a fake.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher resolves a summary and its transcript, composes the message,
// sends it, and records the completed share.
type Dispatcher struct {
	store  store.Store
	sender Sender
	from   string
}

// NewDispatcher wires the dispatcher to its store and mail backend.
func NewDispatcher(st store.Store, sender Sender, from string) *Dispatcher {
	return &Dispatcher{store: st, sender: sender, from: from}
}

// SendSummary emails the effective summary content to the recipients,
// optionally attaching the original transcript, and persists an EmailShare
// on success.
//
// The send deliberately happens before the share record is written: if
// persistence fails afterwards the email is already out and no audit
// record exists. Accepted gap, not auto-corrected.
func (d *Dispatcher) SendSummary(ctx context.Context, summaryID string, recipients []string, subject, message string, includeTranscript bool) (*models.EmailShare, error) {
	sum, ok := d.store.GetSummary(summaryID)
	if !ok {
		return nil, summary.ErrSummaryNotFound
	}
	// The creation invariant makes a dangling transcript reference
	// impossible in normal operation; checked anyway.
	transcript, ok := d.store.GetTranscript(sum.TranscriptID)
	if !ok {
		return nil, summary.ErrTranscriptNotFound
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: recipient list is empty", ErrInvalidRecipients)
	}
	for _, addr := range recipients {
		if _, err := netmail.ParseAddress(addr); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRecipients, addr)
		}
	}

	msg := Message{
		From:    d.from,
		To:      recipients,
		Subject: subject,
		Text:    composeBody(message, sum),
	}
	if includeTranscript && strings.TrimSpace(transcript.Content) != "" {
		name := transcript.Filename
		if name == "" {
			name = defaultAttachmentName
		}
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename: name,
			Content:  base64.StdEncoding.EncodeToString([]byte(transcript.Content)),
		})
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	encoded, err := json.Marshal(recipients)
	if err != nil {
		return nil, fmt.Errorf("encode recipients: %w", err)
	}
	return d.store.CreateEmailShare(summaryID, string(encoded), subject, message, includeTranscript)
}

func composeBody(message string, sum *models.Summary) string {
	var b strings.Builder
	if message != "" {
		b.WriteString(message)
		b.WriteString("\n\n")
		b.WriteString(messageSeparator)
		b.WriteString("\n\n")
	}
	b.WriteString(bodyHeader)
	b.WriteString("\n\n")
	b.WriteString(sum.EffectiveContent())
	return b.String()
}

// SharesBySummary lists completed sends for a summary in creation order.
func (d *Dispatcher) SharesBySummary(summaryID string) []*models.EmailShare {
	return d.store.SharesBySummary(summaryID)
}
