package triage

import (
	"iter"
	"sort"

	"promosweep/internal/model"
)

// Aggregation is the result of one grouping pass.
type Aggregation struct {
	Senders []model.SenderBucket // ranked by count, descending
	Scanned int                  // messages consumed from the stream
	Ignored int                  // messages dropped by the skip predicate
}

// Aggregate groups msgs by raw sender string and ranks the buckets by count.
// Messages whose sender satisfies skip are counted in Ignored and never
// grouped. Buckets with equal counts keep their first-occurrence order.
func Aggregate(msgs iter.Seq[model.MessageSummary], skip func(sender string) bool) Aggregation {
	var agg Aggregation
	index := make(map[string]int)
	for m := range msgs {
		agg.Scanned++
		if skip != nil && skip(m.Sender) {
			agg.Ignored++
			continue
		}
		i, ok := index[m.Sender]
		if !ok {
			i = len(agg.Senders)
			index[m.Sender] = i
			agg.Senders = append(agg.Senders, model.SenderBucket{Sender: m.Sender})
		}
		b := &agg.Senders[i]
		b.Count++
		b.MessageIDs = append(b.MessageIDs, m.ID)
	}
	sort.SliceStable(agg.Senders, func(i, j int) bool {
		return agg.Senders[i].Count > agg.Senders[j].Count
	})
	return agg
}
