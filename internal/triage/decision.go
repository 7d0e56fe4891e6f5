package triage

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"promosweep/internal/model"
)

var (
	ErrDecisionLength   = errors.New("wrong number of decisions")
	ErrDecisionAlphabet = errors.New("unknown decision")
)

// ParseDecisions reads one decision per sender from line: y ignores, n
// deletes all, s skips, q quits. Surrounding whitespace is dropped; anything
// else must match exactly.
func ParseDecisions(line string, n int) ([]model.Decision, error) {
	line = strings.TrimSpace(line)
	if got := utf8.RuneCountInString(line); got != n {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDecisionLength, got, n)
	}
	out := make([]model.Decision, 0, n)
	for _, r := range line {
		switch r {
		case 'y':
			out = append(out, model.DecisionIgnore)
		case 'n':
			out = append(out, model.DecisionDeleteAll)
		case 's':
			out = append(out, model.DecisionSkip)
		case 'q':
			out = append(out, model.DecisionQuit)
		default:
			return nil, fmt.Errorf("%w %q, use y, n, s or q", ErrDecisionAlphabet, r)
		}
	}
	return out, nil
}
