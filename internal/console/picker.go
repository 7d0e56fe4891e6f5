package console

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"promosweep/internal/util"
)

var footerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("241")).
	PaddingTop(1)

// senderItem shows one raw sender string in a list.
type senderItem struct {
	sender string
}

func (s senderItem) FilterValue() string { return s.sender }

func (s senderItem) Title() string {
	if name := util.DisplayName(s.sender); name != "" {
		return name
	}
	return s.sender
}

func (s senderItem) Description() string {
	if addr := util.SenderAddress(s.sender); addr != "" {
		return addr
	}
	return s.sender
}

// PickRemovals shows senders in a filterable list and returns the ones the
// operator marked for removal with d. Enter, q or esc finish; ctrl+c
// discards all marks.
func (t *Terminal) PickRemovals(title string, senders []string) ([]string, error) {
	p := tea.NewProgram(newPickerModel(title, senders), tea.WithInput(t.in), tea.WithOutput(t.out), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("run picker: %w", err)
	}
	m := final.(pickerModel)
	if m.cancelled {
		return nil, nil
	}
	return m.removed, nil
}

type pickerModel struct {
	list      list.Model
	removed   []string
	cancelled bool
}

func newPickerModel(title string, senders []string) pickerModel {
	items := make([]list.Item, len(senders))
	for i, s := range senders {
		items[i] = senderItem{sender: s}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.KeyMap.Quit.SetKeys("q")
	return pickerModel{list: l}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancelled = true
			return m, tea.Quit
		}
		// While filtering, the list owns every other key.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter", "q", "esc":
			return m, tea.Quit
		case "d", "x":
			if item, ok := m.list.SelectedItem().(senderItem); ok {
				m.removed = append(m.removed, item.sender)
				m.list.RemoveItem(m.list.Index())
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	return m.list.View() + "\n" + footerStyle.Render("d: stop ignoring  /: filter  enter: done  ctrl+c: cancel")
}
