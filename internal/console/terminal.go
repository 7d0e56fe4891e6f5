package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var promptStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("39"))

// Terminal reads operator input through a bubbletea text input. Output
// lines are written straight to the terminal between prompts.
type Terminal struct {
	in  io.Reader
	out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out}
}

func (t *Terminal) PrintLine(text string) {
	fmt.Fprintln(t.out, text)
}

func (t *Terminal) PromptLine(message string) (string, error) {
	p := tea.NewProgram(newPromptModel(message), tea.WithInput(t.in), tea.WithOutput(t.out))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("run prompt: %w", err)
	}
	m := final.(promptModel)
	if m.aborted {
		return "", io.EOF
	}
	return m.input.Value(), nil
}

type promptModel struct {
	label   string
	input   textinput.Model
	done    bool
	aborted bool
}

func newPromptModel(label string) promptModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "e.g. ynsy"
	ti.Focus()
	return promptModel{label: label, input: ti}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyCtrlD:
			if m.input.Value() == "" {
				m.aborted = true
				return m, tea.Quit
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || m.aborted {
		// Leave the answered prompt on screen.
		return promptStyle.Render(m.label) + m.input.Value() + "\n"
	}
	return promptStyle.Render(m.label) + m.input.View()
}
