package model

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultSubject is shown when a message carries no Subject header.
	DefaultSubject = "No Subject"
	// UnknownSender groups messages that carry no From header.
	UnknownSender = "Unknown"
)

// Format selects how much of a message the provider returns.
type Format string

const (
	FormatFull     Format = "full"
	FormatMetadata Format = "metadata"
)

// Header is a single raw message header.
type Header struct {
	Name  string
	Value string
}

// BodyPart is one MIME leaf of a message. Data is base64url encoded, the way
// the Gmail API delivers bodies; other providers encode into the same form.
type BodyPart struct {
	MimeType string
	Data     string
}

// IsHTML reports whether the part is a text/html leaf.
func (p BodyPart) IsHTML() bool {
	return strings.HasPrefix(strings.ToLower(p.MimeType), "text/html")
}

// Text decodes Data. Padding is optional: Gmail omits it, the IMAP provider
// writes it.
func (p BodyPart) Text() (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(p.Data, "="))
	if err != nil {
		return "", fmt.Errorf("decode %s part: %w", p.MimeType, err)
	}
	return string(b), nil
}

// Message is the provider's view of a single message.
type Message struct {
	ID      string
	Headers []Header
	Parts   []BodyPart
	Snippet string
}

// Header returns the first header value whose name matches case-insensitively.
func (m *Message) Header(name string) (string, bool) {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// ListPage is one page of a cursor-based listing. NextPageToken is empty on
// the last page.
type ListPage struct {
	IDs           []string
	NextPageToken string
}

// MessageSummary holds what the triage loop shows for one message.
type MessageSummary struct {
	ID          string
	Subject     string
	Sender      string // raw From header, never normalized
	Snippet     string
	Unsubscribe string // empty when no unsubscribe link was found
}

// SummaryFromMessage builds a summary from a provider message, applying the
// subject and sender defaults.
func SummaryFromMessage(m *Message, unsubscribe string) MessageSummary {
	s := MessageSummary{
		ID:          m.ID,
		Subject:     DefaultSubject,
		Sender:      UnknownSender,
		Snippet:     m.Snippet,
		Unsubscribe: unsubscribe,
	}
	if v, ok := m.Header("Subject"); ok {
		s.Subject = v
	}
	if v, ok := m.Header("From"); ok {
		s.Sender = v
	}
	return s
}

// SenderBucket aggregates the messages of one sender in discovery order.
type SenderBucket struct {
	Sender     string
	Count      int
	MessageIDs []string
}

// Representative returns the most recent known message id of the bucket.
// Providers list newest first, so that is the first id discovered.
func (b SenderBucket) Representative() string {
	if len(b.MessageIDs) == 0 {
		return ""
	}
	return b.MessageIDs[0]
}

// Decision is the operator's verdict for one sender in a batch.
type Decision int

const (
	DecisionSkip Decision = iota
	DecisionIgnore
	DecisionDeleteAll
	DecisionQuit
)

func (d Decision) String() string {
	switch d {
	case DecisionIgnore:
		return "ignore"
	case DecisionDeleteAll:
		return "delete"
	case DecisionQuit:
		return "quit"
	default:
		return "skip"
	}
}

// ParseDecisionName is the inverse of Decision.String.
func ParseDecisionName(s string) Decision {
	switch s {
	case "ignore":
		return DecisionIgnore
	case "delete":
		return DecisionDeleteAll
	case "quit":
		return DecisionQuit
	default:
		return DecisionSkip
	}
}

// JournalEntry records one applied decision.
type JournalEntry struct {
	ID        string
	Sender    string
	Decision  Decision
	Trashed   int
	CreatedAt time.Time
}
