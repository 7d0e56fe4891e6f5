package util

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"slices"
	"strings"
)

// HTTPUnsubscribeURL finds the first HTTP(S) URL in an unsubscribe value.
// List-Unsubscribe headers typically hold comma-separated angle-bracketed URLs:
// <https://example.com/unsub>, <mailto:unsub@example.com>
// A bare URL (as scraped from a message body) is returned as-is when HTTP(S).
func HTTPUnsubscribeURL(value string) string {
	for _, p := range strings.Split(value, ",") {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, "<>")
		p = strings.TrimSpace(p)
		if isHTTP(p) {
			return p
		}
	}
	return ""
}

// openers maps GOOS to the command that hands a link to the desktop's
// default handler.
var openers = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"openbsd": {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

// browserCommand returns the argv that opens link on goos. Only absolute
// http(s) links are accepted, so an unsubscribe header cannot smuggle in a
// file: or mailto: target.
func browserCommand(goos, link string) ([]string, error) {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("refusing to open %q: not an http(s) link", link)
	}
	opener, ok := openers[goos]
	if !ok {
		return nil, fmt.Errorf("no browser opener for %s", goos)
	}
	return append(slices.Clone(opener), link), nil
}

// OpenLink starts the desktop browser on link without waiting for it.
func OpenLink(link string) error {
	argv, err := browserCommand(runtime.GOOS, link)
	if err != nil {
		return err
	}
	return exec.Command(argv[0], argv[1:]...).Start()
}

func isHTTP(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
