package triage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"promosweep/internal/model"
)

// DefaultBatchSize is the number of senders presented per round.
const DefaultBatchSize = 10

// State is a step of the triage loop.
type State int

const (
	StateIdle State = iota
	StatePresenting
	StateAwaiting
	StateApplying
	StateDone
	StateQuit
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePresenting:
		return "presenting"
	case StateAwaiting:
		return "awaiting"
	case StateApplying:
		return "applying"
	case StateDone:
		return "done"
	case StateQuit:
		return "quit"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Config wires a Session. Journal and Log are optional.
type Config struct {
	Provider  Provider
	Console   Console
	Ignores   IgnoreList
	Journal   Journal
	Log       logrus.FieldLogger
	BatchSize int
}

// Result summarizes a finished session.
type Result struct {
	State       State // StateDone or StateQuit
	Aggregation Aggregation
	Ignored     int // senders added to the ignore list
	Deleted     int // senders whose mail was fully trashed
	Skipped     int
	Trashed     int // messages moved to trash
}

// Session drives the batch review loop. It is single-threaded: the only
// blocking points are provider calls and console reads.
type Session struct {
	provider  Provider
	console   Console
	ignores   IgnoreList
	journal   Journal
	collector *Collector
	deleter   *Deleter
	log       logrus.FieldLogger
	batchSize int
	now       func() time.Time
}

func NewSession(cfg Config) *Session {
	log := orDiscard(cfg.Log)
	size := cfg.BatchSize
	if size < 1 {
		size = DefaultBatchSize
	}
	return &Session{
		provider:  cfg.Provider,
		console:   cfg.Console,
		ignores:   cfg.Ignores,
		journal:   cfg.Journal,
		collector: NewCollector(cfg.Provider, cfg.Console, log),
		deleter:   NewDeleter(cfg.Provider, cfg.Console, log),
		log:       log,
		batchSize: size,
		now:       time.Now,
	}
}

// Triage scans query within budget, ranks the non-ignored senders and runs
// the review loop over them.
func (s *Session) Triage(ctx context.Context, query string, perPage, budget int) (Result, error) {
	agg := Aggregate(s.collector.Collect(ctx, query, perPage, budget), s.ignores.Contains)
	s.console.PrintLine(fmt.Sprintf("Scanned %d messages, %d from ignored senders, %d senders to review",
		agg.Scanned, agg.Ignored, len(agg.Senders)))
	res, err := s.Run(ctx, agg.Senders)
	res.Aggregation = agg
	return res, err
}

// Run reviews senders batch by batch until none remain or the operator
// quits. Provider failures are printed and never end the session. The only
// error returned is a console failure other than closed input.
func (s *Session) Run(ctx context.Context, senders []model.SenderBucket) (Result, error) {
	var (
		res       Result
		batch     []model.SenderBucket
		decisions []model.Decision
		next      int
	)
	state := StateIdle
	for {
		s.log.WithFields(logrus.Fields{"state": state, "next": next}).Debug("triage step")
		switch state {
		case StateIdle:
			state = StatePresenting

		case StatePresenting:
			if next >= len(senders) {
				state = StateDone
				continue
			}
			end := min(next+s.batchSize, len(senders))
			batch = senders[next:end]
			s.console.PrintLine(batchHeader(next+1, end, len(senders)))
			s.present(ctx, batch)
			next = end
			state = StateAwaiting

		case StateAwaiting:
			d, err := s.await(len(batch))
			if err != nil {
				res.State = StateQuit
				if errors.Is(err, io.EOF) {
					return res, nil
				}
				return res, err
			}
			if slices.Contains(d, model.DecisionQuit) {
				state = StateQuit
				continue
			}
			decisions = d
			state = StateApplying

		case StateApplying:
			s.apply(ctx, batch, decisions, &res)
			state = StatePresenting

		case StateDone, StateQuit:
			res.State = state
			return res, nil
		}
	}
}

func (s *Session) present(ctx context.Context, batch []model.SenderBucket) {
	for i, b := range batch {
		var summary model.MessageSummary
		if id := b.Representative(); id != "" {
			msg, err := s.provider.GetMessage(ctx, id, model.FormatFull)
			if err != nil {
				s.log.WithError(err).WithField("id", id).Warn("representative fetch failed")
				s.console.PrintLine(fmt.Sprintf("Could not load a message from %s: %v", b.Sender, err))
			} else {
				summary = model.SummaryFromMessage(msg, ExtractUnsubscribe(msg.Headers, msg.Parts))
			}
		}
		for _, line := range senderLines(i+1, b, summary) {
			s.console.PrintLine(line)
		}
	}
}

// await prompts until the operator enters a well-formed decision string.
func (s *Session) await(n int) ([]model.Decision, error) {
	for {
		line, err := s.console.PromptLine(decisionPrompt(n))
		if err != nil {
			return nil, fmt.Errorf("read decisions: %w", err)
		}
		d, err := ParseDecisions(line, n)
		if err != nil {
			s.console.PrintLine(fmt.Sprintf("Invalid input: %v", err))
			continue
		}
		return d, nil
	}
}

func (s *Session) apply(ctx context.Context, batch []model.SenderBucket, decisions []model.Decision, res *Result) {
	for i, b := range batch {
		d := decisions[i]
		trashed := 0
		switch d {
		case model.DecisionIgnore:
			if err := s.ignores.Add(b.Sender); err != nil {
				s.console.PrintLine(fmt.Sprintf("Could not save ignore list: %v", err))
			} else {
				s.console.PrintLine(fmt.Sprintf("Ignoring %s from now on", b.Sender))
				res.Ignored++
			}
		case model.DecisionDeleteAll:
			n, err := s.deleter.DeleteAll(ctx, b.Sender, b.Representative())
			if err != nil {
				s.console.PrintLine(fmt.Sprintf("An error occurred deleting mail from %s after %d emails: %v", b.Sender, n, err))
			} else {
				res.Deleted++
			}
			trashed = n
			res.Trashed += n
		default:
			res.Skipped++
		}
		s.record(ctx, b.Sender, d, trashed)
	}
}

func (s *Session) record(ctx context.Context, sender string, d model.Decision, trashed int) {
	if s.journal == nil {
		return
	}
	entry := model.JournalEntry{
		ID:        uuid.NewString(),
		Sender:    sender,
		Decision:  d,
		Trashed:   trashed,
		CreatedAt: s.now().UTC(),
	}
	if err := s.journal.RecordDecision(ctx, entry); err != nil {
		s.log.WithError(err).Warn("journal write failed")
		s.console.PrintLine(fmt.Sprintf("Could not record decision for %s: %v", sender, err))
	}
}
