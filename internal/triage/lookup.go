package triage

import (
	"context"
	"errors"
	"fmt"

	"promosweep/internal/model"
)

// ErrNoMessages is returned when a sender has no matching mail.
var ErrNoMessages = errors.New("no messages found")

// Latest fetches the newest message from sender in full and extracts its
// unsubscribe link.
func Latest(ctx context.Context, p Provider, sender string) (model.MessageSummary, error) {
	page, err := p.ListMessages(ctx, FromQuery(sender), "", 1)
	if err != nil {
		return model.MessageSummary{}, fmt.Errorf("list messages from %s: %w", sender, err)
	}
	if len(page.IDs) == 0 {
		return model.MessageSummary{}, fmt.Errorf("%w from %s", ErrNoMessages, sender)
	}
	msg, err := p.GetMessage(ctx, page.IDs[0], model.FormatFull)
	if err != nil {
		return model.MessageSummary{}, err
	}
	return model.SummaryFromMessage(msg, ExtractUnsubscribe(msg.Headers, msg.Parts)), nil
}
