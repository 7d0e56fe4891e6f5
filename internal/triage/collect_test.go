package triage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promosweep/internal/model"
)

func manyMsgs(n int) []fakeMsg {
	out := make([]fakeMsg, n)
	for i := range out {
		out[i] = fakeMsg{id: fmt.Sprintf("m%d", i+1), from: fmt.Sprintf("s%d@example.com", i%7)}
	}
	return out
}

func collectIDs(t *testing.T, c *Collector, perPage, budget int) ([]string, error) {
	t.Helper()
	var ids []string
	for page, err := range c.Pages(context.Background(), "category:promotions", perPage, budget) {
		if err != nil {
			return ids, err
		}
		ids = append(ids, page...)
	}
	return ids, nil
}

func TestPages_YieldsMinOfBudgetAndMatches(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		perPage   int
		budget    int
		want      int
		wantSizes []int
	}{
		{"unbounded", 250, 0, Unbounded, 250, []int{100, 100, 100}},
		{"budget below total", 250, 0, 120, 120, []int{100, 20}},
		{"budget above total", 250, 0, 1000, 250, []int{100, 100, 100}},
		{"small pages", 20, 2, 5, 5, []int{2, 2, 1}},
		{"per page above cap", 150, 500, Unbounded, 150, []int{100, 100}},
		{"empty mailbox", 0, 0, 10, 0, []int{10}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newFakeProvider(manyMsgs(tc.total)...)
			c := NewCollector(p, &scriptConsole{}, nil)

			ids, err := collectIDs(t, c, tc.perPage, tc.budget)
			require.NoError(t, err)
			assert.Len(t, ids, tc.want)

			var sizes []int
			for _, l := range p.lists {
				sizes = append(sizes, l.pageSize)
			}
			assert.Equal(t, tc.wantSizes, sizes)
		})
	}
}

func TestPages_FollowsCursor(t *testing.T) {
	p := newFakeProvider(manyMsgs(150)...)
	c := NewCollector(p, &scriptConsole{}, nil)

	_, err := collectIDs(t, c, 0, Unbounded)
	require.NoError(t, err)
	require.Len(t, p.lists, 2)
	assert.Equal(t, "", p.lists[0].pageToken)
	assert.Equal(t, "m100", p.lists[1].pageToken)
}

func TestPages_CutsOversizedPageAtBudget(t *testing.T) {
	p := newFakeProvider(manyMsgs(300)...)
	p.fixedPage = 100
	c := NewCollector(p, &scriptConsole{}, nil)

	ids, err := collectIDs(t, c, 0, 30)
	require.NoError(t, err)
	assert.Len(t, ids, 30)
	assert.Equal(t, "m30", ids[29])
	assert.Len(t, p.lists, 1, "no page may be fetched once the budget is reached")
}

func TestPages_ListErrorEndsSequence(t *testing.T) {
	p := newFakeProvider(manyMsgs(250)...)
	p.failListOn = 2
	c := NewCollector(p, &scriptConsole{}, nil)

	ids, err := collectIDs(t, c, 0, Unbounded)
	require.ErrorIs(t, err, errProvider)
	assert.Len(t, ids, 100)
}

func TestCollect_ReportsAndKeepsGathered(t *testing.T) {
	p := newFakeProvider(manyMsgs(150)...)
	p.failListOn = 2
	p.failGet["m3"] = true
	out := &scriptConsole{}
	c := NewCollector(p, out, nil)

	var got []model.MessageSummary
	for s := range c.Collect(context.Background(), "q", 0, Unbounded) {
		got = append(got, s)
	}
	assert.Len(t, got, 99)
	assert.True(t, out.printed("Skipping message m3"))
	assert.True(t, out.printed("An error occurred while listing messages"))
}

func TestCollect_AppliesDefaults(t *testing.T) {
	p := newFakeProvider(
		fakeMsg{id: "a"},
		fakeMsg{id: "b", from: "Shop <deals@shop.com>", subject: "Sale", listUnsub: "<mailto:u@shop.com>"},
	)
	c := NewCollector(p, &scriptConsole{}, nil)

	var got []model.MessageSummary
	for s := range c.Collect(context.Background(), "q", 0, Unbounded) {
		got = append(got, s)
	}
	require.Len(t, got, 2)
	assert.Equal(t, model.UnknownSender, got[0].Sender)
	assert.Equal(t, model.DefaultSubject, got[0].Subject)
	assert.Equal(t, "Shop <deals@shop.com>", got[1].Sender)
	assert.Equal(t, "<mailto:u@shop.com>", got[1].Unsubscribe)
}

func TestCollect_StopsWhenConsumerStops(t *testing.T) {
	p := newFakeProvider(manyMsgs(250)...)
	c := NewCollector(p, &scriptConsole{}, nil)

	n := 0
	for range c.Collect(context.Background(), "q", 0, Unbounded) {
		n++
		if n == 5 {
			break
		}
	}
	assert.Len(t, p.gets, 5)
	assert.Len(t, p.lists, 1)
}
