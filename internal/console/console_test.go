package console

import (
	"bytes"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLine_PromptAndPrint(t *testing.T) {
	var out bytes.Buffer
	c := NewLine(strings.NewReader("yns\r\nq"), &out)

	c.PrintLine("Senders 1-3 of 3")
	got, err := c.PromptLine("Enter 3 decisions: ")
	require.NoError(t, err)
	assert.Equal(t, "yns", got)

	got, err = c.PromptLine("again: ")
	require.NoError(t, err)
	assert.Equal(t, "q", got, "final line without newline")

	_, err = c.PromptLine("closed: ")
	assert.ErrorIs(t, err, io.EOF)

	assert.True(t, strings.HasPrefix(out.String(), "Senders 1-3 of 3\nEnter 3 decisions: "))
}

func typeRunes(m promptModel, s string) promptModel {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(promptModel)
}

func TestPromptModel_Enter(t *testing.T) {
	m := typeRunes(newPromptModel("Enter 3 decisions: "), "yns")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(promptModel)

	assert.True(t, m.done)
	assert.False(t, m.aborted)
	assert.Equal(t, "yns", m.input.Value())
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "yns")
}

func TestPromptModel_Abort(t *testing.T) {
	for _, k := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		next, cmd := newPromptModel("? ").Update(tea.KeyMsg{Type: k})
		m := next.(promptModel)
		assert.True(t, m.aborted)
		assert.NotNil(t, cmd)
	}
}

func TestPromptModel_CtrlDOnlyAbortsEmpty(t *testing.T) {
	m := typeRunes(newPromptModel("? "), "y")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.False(t, next.(promptModel).aborted)

	next, _ = newPromptModel("? ").Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.True(t, next.(promptModel).aborted)
}

func TestPickerModel_RemovesSelected(t *testing.T) {
	m := newPickerModel("Ignored senders", []string{"Alpha <a@x.com>", "b@x.com"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(pickerModel)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	m = next.(pickerModel)
	assert.Equal(t, []string{"Alpha <a@x.com>"}, m.removed)
	assert.Len(t, m.list.Items(), 1)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(pickerModel)
	assert.NotNil(t, cmd)
	assert.False(t, m.cancelled)
}

func TestPickerModel_CtrlCCancels(t *testing.T) {
	m := newPickerModel("Ignored senders", []string{"a@x.com"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	next, _ = next.(pickerModel).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	next, _ = next.(pickerModel).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, next.(pickerModel).cancelled)
}

func TestSenderItem(t *testing.T) {
	s := senderItem{sender: "Shop <Deals@Shop.com>"}
	assert.Equal(t, "Shop", s.Title())
	assert.Equal(t, "deals@shop.com", s.Description())

	bare := senderItem{sender: "Unknown"}
	assert.Equal(t, "Unknown", bare.Title())
	assert.Equal(t, "Unknown", bare.Description())
}
