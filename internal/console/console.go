package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Console prints diagnostic lines and reads one line of operator input.
// PromptLine returns io.EOF when input is closed or the prompt is aborted.
type Console interface {
	PrintLine(text string)
	PromptLine(message string) (string, error)
}

// New picks the interactive Terminal when both ends are terminals and plain
// is false, otherwise a Line console.
func New(in, out *os.File, plain bool) Console {
	if !plain && isTerminal(in) && isTerminal(out) {
		return NewTerminal(in, out)
	}
	return NewLine(in, out)
}

// Interactive reports whether f is attached to a terminal.
func Interactive(f *os.File) bool {
	return isTerminal(f)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Line is a plain line-oriented console for pipes and dumb terminals.
type Line struct {
	r *bufio.Reader
	w io.Writer
}

func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{r: bufio.NewReader(in), w: out}
}

func (l *Line) PrintLine(text string) {
	fmt.Fprintln(l.w, text)
}

func (l *Line) PromptLine(message string) (string, error) {
	fmt.Fprint(l.w, message)
	line, err := l.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(l.w)
		}
		return "", io.EOF
	}
	return strings.TrimRight(line, "\r\n"), nil
}
