package triage

import (
	"context"
	"fmt"
	"iter"

	"github.com/sirupsen/logrus"

	"promosweep/internal/model"
)

// summaryHeaders are the headers requested when building a MessageSummary.
var summaryHeaders = []string{"From", "Subject", "List-Unsubscribe"}

// Collector walks the provider's cursor-based listing.
type Collector struct {
	provider Provider
	out      Printer
	log      logrus.FieldLogger
}

func NewCollector(provider Provider, out Printer, log logrus.FieldLogger) *Collector {
	return &Collector{provider: provider, out: out, log: orDiscard(log)}
}

// Pages yields the ids matching query one page at a time, newest first as
// the provider orders them. It stops on an empty page, a missing cursor, or
// once budget ids have been yielded (budget <= 0 means no limit). A page that
// overshoots the budget is cut short. A listing error is yielded once and
// ends the sequence. The sequence is not restartable.
func (c *Collector) Pages(ctx context.Context, query string, perPage, budget int) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		pageToken := ""
		seen := 0
		for page := 1; ; page++ {
			size := pageSize(perPage, budget, seen)
			resp, err := c.provider.ListMessages(ctx, query, pageToken, size)
			if err != nil {
				yield(nil, fmt.Errorf("list messages %q: %w", query, err))
				return
			}
			ids := resp.IDs
			c.log.WithFields(logrus.Fields{"query": query, "page": page, "count": len(ids)}).Debug("listed page")
			if len(ids) == 0 {
				return
			}
			if budget > 0 && seen+len(ids) > budget {
				ids = ids[:budget-seen]
			}
			seen += len(ids)
			if !yield(ids, nil) {
				return
			}
			if budget > 0 && seen >= budget {
				return
			}
			if resp.NextPageToken == "" {
				return
			}
			pageToken = resp.NextPageToken
		}
	}
}

// Collect yields a MessageSummary for every id Pages produces. A listing
// error is reported and ends the sequence with what was gathered; a failed
// message fetch is reported and skipped, but its slot still counts against
// the budget.
func (c *Collector) Collect(ctx context.Context, query string, perPage, budget int) iter.Seq[model.MessageSummary] {
	return func(yield func(model.MessageSummary) bool) {
		for ids, err := range c.Pages(ctx, query, perPage, budget) {
			if err != nil {
				c.log.WithError(err).Warn("listing stopped")
				c.out.PrintLine(fmt.Sprintf("An error occurred while listing messages: %v", err))
				return
			}
			for _, id := range ids {
				msg, err := c.provider.GetMessage(ctx, id, model.FormatMetadata, summaryHeaders...)
				if err != nil {
					c.log.WithError(err).WithField("id", id).Warn("message fetch failed")
					c.out.PrintLine(fmt.Sprintf("Skipping message %s: %v", id, err))
					continue
				}
				if !yield(model.SummaryFromMessage(msg, ExtractUnsubscribe(msg.Headers, nil))) {
					return
				}
			}
		}
	}
}

// pageSize is min(perPage, PageCap, remaining budget).
func pageSize(perPage, budget, seen int) int {
	size := PageCap
	if perPage > 0 && perPage < size {
		size = perPage
	}
	if budget > 0 {
		if remaining := budget - seen; remaining < size {
			size = remaining
		}
	}
	return size
}
