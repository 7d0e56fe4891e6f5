package triage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"promosweep/internal/model"
)

var errProvider = errors.New("provider unavailable")

type fakeMsg struct {
	id        string
	from      string
	subject   string
	listUnsub string
	html      string
}

type listCall struct {
	query     string
	pageToken string
	pageSize  int
}

// fakeProvider serves msgs newest first. The page cursor is the id of the
// last message returned, so trashing during paging does not shift pages.
type fakeProvider struct {
	msgs      []fakeMsg
	trashed   map[string]bool
	fixedPage int // when > 0, ignore the requested page size

	failListOn int // 1-based list call that fails
	failGet    map[string]bool
	failTrash  map[string]bool

	lists      []listCall
	gets       []string
	trashCalls []string
}

func newFakeProvider(msgs ...fakeMsg) *fakeProvider {
	return &fakeProvider{
		msgs:      msgs,
		trashed:   map[string]bool{},
		failGet:   map[string]bool{},
		failTrash: map[string]bool{},
	}
}

func (p *fakeProvider) matches(query string, m fakeMsg) bool {
	if sender, ok := strings.CutPrefix(query, "from:"); ok {
		return m.from == sender
	}
	return true
}

func (p *fakeProvider) ListMessages(_ context.Context, query, pageToken string, pageSize int) (model.ListPage, error) {
	p.lists = append(p.lists, listCall{query: query, pageToken: pageToken, pageSize: pageSize})
	if p.failListOn == len(p.lists) {
		return model.ListPage{}, errProvider
	}
	if p.fixedPage > 0 {
		pageSize = p.fixedPage
	}
	start := 0
	if pageToken != "" {
		for i, m := range p.msgs {
			if m.id == pageToken {
				start = i + 1
			}
		}
	}
	var page model.ListPage
	for i := start; i < len(p.msgs); i++ {
		m := p.msgs[i]
		if p.trashed[m.id] || !p.matches(query, m) {
			continue
		}
		if len(page.IDs) == pageSize {
			page.NextPageToken = page.IDs[len(page.IDs)-1]
			break
		}
		page.IDs = append(page.IDs, m.id)
	}
	return page, nil
}

func (p *fakeProvider) GetMessage(_ context.Context, id string, _ model.Format, _ ...string) (*model.Message, error) {
	p.gets = append(p.gets, id)
	if p.failGet[id] {
		return nil, errProvider
	}
	for _, m := range p.msgs {
		if m.id != id {
			continue
		}
		msg := &model.Message{ID: id, Snippet: "snippet " + id}
		if m.from != "" {
			msg.Headers = append(msg.Headers, model.Header{Name: "From", Value: m.from})
		}
		if m.subject != "" {
			msg.Headers = append(msg.Headers, model.Header{Name: "Subject", Value: m.subject})
		}
		if m.listUnsub != "" {
			msg.Headers = append(msg.Headers, model.Header{Name: "List-Unsubscribe", Value: m.listUnsub})
		}
		if m.html != "" {
			msg.Parts = append(msg.Parts, model.BodyPart{MimeType: "text/html", Data: b64(m.html)})
		}
		return msg, nil
	}
	return nil, fmt.Errorf("message %s: not found", id)
}

func (p *fakeProvider) TrashMessage(_ context.Context, id string) error {
	p.trashCalls = append(p.trashCalls, id)
	if p.failTrash[id] {
		return errProvider
	}
	p.trashed[id] = true
	return nil
}

func (p *fakeProvider) trashedCount() int {
	return len(p.trashed)
}

// senderMsgs builds n messages from sender with ids prefix1..prefixN.
func senderMsgs(sender, prefix string, n int) []fakeMsg {
	out := make([]fakeMsg, n)
	for i := range out {
		out[i] = fakeMsg{id: fmt.Sprintf("%s%d", prefix, i+1), from: sender, subject: "Deal " + prefix}
	}
	return out
}

type scriptConsole struct {
	lines   []string
	prompts []string
	out     []string
}

func (c *scriptConsole) PromptLine(message string) (string, error) {
	c.prompts = append(c.prompts, message)
	if len(c.lines) == 0 {
		return "", io.EOF
	}
	line := c.lines[0]
	c.lines = c.lines[1:]
	return line, nil
}

func (c *scriptConsole) PrintLine(text string) {
	c.out = append(c.out, text)
}

func (c *scriptConsole) printed(substr string) bool {
	for _, l := range c.out {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

type memIgnore struct {
	set   map[string]bool
	saves int
	fail  error
}

func newMemIgnore(senders ...string) *memIgnore {
	m := &memIgnore{set: map[string]bool{}}
	for _, s := range senders {
		m.set[s] = true
	}
	return m
}

func (m *memIgnore) Contains(sender string) bool { return m.set[sender] }

func (m *memIgnore) Add(sender string) error {
	if m.fail != nil {
		return m.fail
	}
	if m.set[sender] {
		return nil
	}
	m.set[sender] = true
	m.saves++
	return nil
}

type memJournal struct {
	entries []model.JournalEntry
}

func (j *memJournal) RecordDecision(_ context.Context, e model.JournalEntry) error {
	j.entries = append(j.entries, e)
	return nil
}

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
