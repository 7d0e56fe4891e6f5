package triage

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"promosweep/internal/model"
)

// PageCap is the largest page a provider serves for one listing call.
const PageCap = 100

// Unbounded disables the scan budget.
const Unbounded = 0

// Provider is the narrow mail-provider surface the triage engine needs.
// Implementations live in internal/gmail and internal/imapmail.
type Provider interface {
	ListMessages(ctx context.Context, query, pageToken string, pageSize int) (model.ListPage, error)
	GetMessage(ctx context.Context, id string, format model.Format, metadataHeaders ...string) (*model.Message, error)
	TrashMessage(ctx context.Context, id string) error
}

// Printer receives one-line diagnostics and progress output.
type Printer interface {
	PrintLine(text string)
}

// Console is the operator's terminal. PromptLine returns io.EOF when input
// is closed or the prompt was aborted.
type Console interface {
	Printer
	PromptLine(message string) (string, error)
}

// IgnoreList is the persisted set of senders to skip. Add must persist the
// change before returning and is a no-op for senders already present.
type IgnoreList interface {
	Contains(sender string) bool
	Add(sender string) error
}

// Journal records applied decisions.
type Journal interface {
	RecordDecision(ctx context.Context, entry model.JournalEntry) error
}

func orDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
