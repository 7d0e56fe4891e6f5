package triage

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// FromQuery is the listing query matching every message of sender.
func FromQuery(sender string) string {
	return "from:" + sender
}

// Deleter moves all of a sender's messages to the trash. Trash is reversible;
// nothing here erases mail permanently.
type Deleter struct {
	provider  Provider
	collector *Collector
	out       Printer
	log       logrus.FieldLogger
}

func NewDeleter(provider Provider, out Printer, log logrus.FieldLogger) *Deleter {
	log = orDiscard(log)
	return &Deleter{
		provider:  provider,
		collector: NewCollector(provider, out, log),
		out:       out,
		log:       log,
	}
}

// DeleteAll is DeleteUpTo without a limit.
func (d *Deleter) DeleteAll(ctx context.Context, sender, knownID string) (int, error) {
	return d.DeleteUpTo(ctx, sender, knownID, Unbounded)
}

// DeleteUpTo trashes knownID (when non-empty) without querying for it, then
// pages through FromQuery(sender) trashing every id returned until limit
// messages are gone (limit <= 0 means none).
//
// A failure on knownID is reported and the sweep carries on; a failure
// inside a page ends the run. Either way the count of messages trashed so
// far is returned alongside the error.
func (d *Deleter) DeleteUpTo(ctx context.Context, sender, knownID string, limit int) (int, error) {
	log := d.log.WithField("sender", sender)
	deleted := 0
	var knownErr error
	if knownID != "" {
		if err := d.provider.TrashMessage(ctx, knownID); err != nil {
			knownErr = fmt.Errorf("trash message %s: %w", knownID, err)
			log.WithError(err).WithField("id", knownID).Warn("trash failed")
			d.out.PrintLine(fmt.Sprintf("Could not move message %s to trash: %v", knownID, err))
		} else {
			deleted++
		}
	}

	limited := func() bool { return limit > 0 && deleted >= limit }
	if limited() {
		return d.finish(log, sender, deleted, limit, knownErr)
	}

	budget := Unbounded
	if limit > 0 {
		budget = limit - deleted
		if knownErr != nil {
			// the untrashed known message is still listed and skipped
			budget++
		}
	}
	for ids, err := range d.collector.Pages(ctx, FromQuery(sender), PageCap, budget) {
		if err != nil {
			return deleted, errors.Join(knownErr, err)
		}
		d.out.PrintLine(fmt.Sprintf("Found %d more emails from %s", len(ids), sender))
		moved := 0
		for _, id := range ids {
			if id == knownID {
				continue
			}
			if limited() {
				break
			}
			if err := d.provider.TrashMessage(ctx, id); err != nil {
				log.WithError(err).WithField("id", id).Warn("trash failed")
				return deleted, errors.Join(knownErr, fmt.Errorf("trash message %s: %w", id, err))
			}
			deleted++
			moved++
		}
		d.out.PrintLine(fmt.Sprintf("Moved %d emails to trash", moved))
		if limited() {
			break
		}
	}
	return d.finish(log, sender, deleted, limit, knownErr)
}

func (d *Deleter) finish(log logrus.FieldLogger, sender string, deleted, limit int, err error) (int, error) {
	if deleted == 0 {
		d.out.PrintLine(fmt.Sprintf("No emails found from %s", sender))
		return 0, err
	}
	if limit > 0 && deleted >= limit {
		d.out.PrintLine(fmt.Sprintf("Reached maximum deletion limit of %d", limit))
	}
	d.out.PrintLine(fmt.Sprintf("Total emails moved to trash from %s: %d", sender, deleted))
	log.WithField("deleted", deleted).Debug("sender cleared")
	return deleted, err
}
