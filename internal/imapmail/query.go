package imapmail

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"

	"promosweep/internal/util"
)

// ParseQuery translates the supported subset of Gmail search syntax into IMAP
// search criteria. from:, to: and subject: terms take every following word
// up to the next key: term; words before any key are full-text terms. Any
// other key is rejected.
func ParseQuery(query string) (*imap.SearchCriteria, error) {
	criteria := &imap.SearchCriteria{}

	var key string
	var words []string
	flush := func() error {
		if key == "" {
			return nil
		}
		raw := strings.Join(words, " ")
		value := unquote(raw)
		if value == "" {
			return fmt.Errorf("empty value for %s:", key)
		}
		switch key {
		case "from":
			// the quoted display name must reach the address parser intact
			if addr := util.SenderAddress(raw); addr != "" {
				value = addr
			}
			criteria.Header = append(criteria.Header, imap.SearchCriteriaHeaderField{Key: "From", Value: value})
		case "to":
			criteria.Header = append(criteria.Header, imap.SearchCriteriaHeaderField{Key: "To", Value: value})
		case "subject":
			criteria.Header = append(criteria.Header, imap.SearchCriteriaHeaderField{Key: "Subject", Value: value})
		}
		return nil
	}

	for _, tok := range strings.Fields(query) {
		if k, rest, ok := splitTerm(tok); ok {
			if err := flush(); err != nil {
				return nil, err
			}
			switch k {
			case "from", "to", "subject":
			default:
				return nil, fmt.Errorf("unsupported query term %q", k+":")
			}
			key = k
			words = words[:0]
			if rest != "" {
				words = append(words, rest)
			}
			continue
		}
		if key == "" {
			criteria.Text = append(criteria.Text, unquote(tok))
			continue
		}
		words = append(words, tok)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return criteria, nil
}

// unquote strips one balanced pair of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// splitTerm reports whether tok is a key:value term with an alphabetic key.
func splitTerm(tok string) (key, rest string, ok bool) {
	i := strings.IndexByte(tok, ':')
	if i <= 0 {
		return "", "", false
	}
	for _, r := range tok[:i] {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return "", "", false
		}
	}
	return strings.ToLower(tok[:i]), tok[i+1:], true
}

// pageUIDs orders uids newest first and returns the page that starts below
// the cursor. The cursor is the last UID of the previous page, so trashing
// messages between calls does not shift later pages.
func pageUIDs(uids []imap.UID, cursor string, size int) (ids []string, next string, err error) {
	sorted := slices.Clone(uids)
	slices.SortFunc(sorted, func(a, b imap.UID) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})

	start := 0
	if cursor != "" {
		below, err := parseUID(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("bad page token %q: %w", cursor, err)
		}
		start = len(sorted)
		for i, u := range sorted {
			if u < below {
				start = i
				break
			}
		}
	}

	end := len(sorted)
	if size > 0 && start+size < end {
		end = start + size
	}
	for _, u := range sorted[start:end] {
		ids = append(ids, formatUID(u))
	}
	if end < len(sorted) && len(ids) > 0 {
		next = ids[len(ids)-1]
	}
	return ids, next, nil
}

func parseUID(s string) (imap.UID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("uid must be positive")
	}
	return imap.UID(n), nil
}

func formatUID(u imap.UID) string {
	return strconv.FormatUint(uint64(u), 10)
}
