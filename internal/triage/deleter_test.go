package triage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteAll_KnownMessageFirst(t *testing.T) {
	p := newFakeProvider(senderMsgs("news@shop.com", "m", 3)...)
	out := &scriptConsole{}
	d := NewDeleter(p, out, nil)

	n, err := d.DeleteAll(context.Background(), "news@shop.com", "m1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"m1", "m2", "m3"}, p.trashCalls)
	assert.Empty(t, p.gets, "the known message is never fetched")
	require.NotEmpty(t, p.lists)
	assert.Equal(t, "from:news@shop.com", p.lists[0].query)
	assert.Equal(t, PageCap, p.lists[0].pageSize)
	assert.True(t, out.printed("Total emails moved to trash from news@shop.com: 3"))
}

func TestDeleteAll_LeavesOtherSenders(t *testing.T) {
	msgs := append(senderMsgs("a@x.com", "a", 2), senderMsgs("b@x.com", "b", 2)...)
	p := newFakeProvider(msgs...)
	d := NewDeleter(p, &scriptConsole{}, nil)

	n, err := d.DeleteAll(context.Background(), "b@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, p.trashed["a1"])
	assert.False(t, p.trashed["a2"])
}

func TestDeleteAll_Paginates(t *testing.T) {
	p := newFakeProvider(senderMsgs("bulk@x.com", "m", 230)...)
	out := &scriptConsole{}
	d := NewDeleter(p, out, nil)

	n, err := d.DeleteAll(context.Background(), "bulk@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, 230, n)
	assert.Equal(t, 230, p.trashedCount())
	assert.True(t, out.printed("Found 100 more emails from bulk@x.com"))
	assert.True(t, out.printed("Found 30 more emails from bulk@x.com"))
}

func TestDeleteAll_PartialOnFailure(t *testing.T) {
	p := newFakeProvider(senderMsgs("a@x.com", "m", 5)...)
	p.failTrash["m3"] = true
	d := NewDeleter(p, &scriptConsole{}, nil)

	n, err := d.DeleteAll(context.Background(), "a@x.com", "")
	require.ErrorIs(t, err, errProvider)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"m1", "m2", "m3"}, p.trashCalls)
}

func TestDeleteAll_KnownFailureStillSweeps(t *testing.T) {
	p := newFakeProvider(senderMsgs("a@x.com", "m", 3)...)
	p.failTrash["m1"] = true
	out := &scriptConsole{}
	d := NewDeleter(p, out, nil)

	n, err := d.DeleteAll(context.Background(), "a@x.com", "m1")
	require.ErrorIs(t, err, errProvider)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"m1", "m2", "m3"}, p.trashCalls, "m1 is not retried")
	assert.True(t, p.trashed["m2"])
	assert.True(t, p.trashed["m3"])
	require.NotEmpty(t, p.lists)
	assert.True(t, out.printed("Could not move message m1 to trash"))
	assert.True(t, out.printed("Total emails moved to trash from a@x.com: 2"))
}

func TestDeleteUpTo_StopsAtLimit(t *testing.T) {
	p := newFakeProvider(senderMsgs("a@x.com", "m", 5)...)
	out := &scriptConsole{}
	d := NewDeleter(p, out, nil)

	n, err := d.DeleteUpTo(context.Background(), "a@x.com", "", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"m1", "m2", "m3"}, p.trashCalls)
	require.Len(t, p.lists, 1)
	assert.Equal(t, 3, p.lists[0].pageSize)
	assert.True(t, out.printed("Reached maximum deletion limit of 3"))
}

func TestDeleteUpTo_KnownMessageFillsLimit(t *testing.T) {
	p := newFakeProvider(senderMsgs("a@x.com", "m", 4)...)
	out := &scriptConsole{}
	d := NewDeleter(p, out, nil)

	n, err := d.DeleteUpTo(context.Background(), "a@x.com", "m1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, p.lists)
	assert.True(t, out.printed("Reached maximum deletion limit of 1"))
}

func TestDeleteUpTo_LimitAboveTotal(t *testing.T) {
	p := newFakeProvider(senderMsgs("a@x.com", "m", 2)...)
	out := &scriptConsole{}
	d := NewDeleter(p, out, nil)

	n, err := d.DeleteUpTo(context.Background(), "a@x.com", "", 50)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, out.printed("Reached maximum deletion limit"))
}

func TestDeleteAll_ListFailureKeepsCount(t *testing.T) {
	p := newFakeProvider(senderMsgs("a@x.com", "m", 3)...)
	p.failListOn = 1
	d := NewDeleter(p, &scriptConsole{}, nil)

	n, err := d.DeleteAll(context.Background(), "a@x.com", "m1")
	require.ErrorIs(t, err, errProvider)
	assert.Equal(t, 1, n)
}

func TestDeleteAll_NothingFound(t *testing.T) {
	p := newFakeProvider()
	out := &scriptConsole{}
	d := NewDeleter(p, out, nil)

	n, err := d.DeleteAll(context.Background(), "ghost@x.com", "")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, out.printed("No emails found from ghost@x.com"))
}
