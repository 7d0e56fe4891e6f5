package ignore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.yaml.in/yaml/v4"
)

// fileFormat is the on-disk layout of the ignore list.
type fileFormat struct {
	Senders []string `yaml:"senders"`
}

// List is the set of senders the triage loop skips. Membership is an exact
// string match on the raw From header. The set is loaded once and every
// change is written back before Add returns.
type List struct {
	path    string
	senders map[string]struct{}
}

// Load reads the ignore list at path. A missing file is an empty list.
func Load(path string) (*List, error) {
	l := &List{path: path, senders: make(map[string]struct{})}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l, nil
		}
		return nil, fmt.Errorf("read ignore list: %w", err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse ignore list %s: %w", path, err)
	}
	for _, s := range f.Senders {
		l.senders[s] = struct{}{}
	}
	return l, nil
}

// Path is the backing file.
func (l *List) Path() string { return l.path }

func (l *List) Contains(sender string) bool {
	_, ok := l.senders[sender]
	return ok
}

// Add inserts sender and saves the list. Adding a present sender does not
// touch the file.
func (l *List) Add(sender string) error {
	if l.Contains(sender) {
		return nil
	}
	l.senders[sender] = struct{}{}
	if err := l.save(); err != nil {
		delete(l.senders, sender)
		return err
	}
	return nil
}

// Remove deletes sender and saves the list. It reports whether the sender
// was present.
func (l *List) Remove(sender string) (bool, error) {
	if !l.Contains(sender) {
		return false, nil
	}
	delete(l.senders, sender)
	if err := l.save(); err != nil {
		l.senders[sender] = struct{}{}
		return false, err
	}
	return true, nil
}

// Senders returns the members in sorted order.
func (l *List) Senders() []string {
	out := make([]string, 0, len(l.senders))
	for s := range l.senders {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (l *List) Len() int { return len(l.senders) }

func (l *List) save() error {
	data, err := yaml.Marshal(fileFormat{Senders: l.Senders()})
	if err != nil {
		return fmt.Errorf("encode ignore list: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create ignore list dir: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ignore list: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace ignore list: %w", err)
	}
	return nil
}
