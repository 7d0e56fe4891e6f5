package triage

import (
	"strings"

	"promosweep/internal/model"
)

// unsubscribeMarkers are searched in this order; the order is part of the
// extraction contract.
var unsubscribeMarkers = []string{
	"unsubscribe</a>",
	"opt out</a>",
	"opt-out</a>",
}

// ExtractUnsubscribe returns a best-effort unsubscribe link for a message, or
// "" when none is found.
//
// A List-Unsubscribe header wins and is returned verbatim. Otherwise each
// HTML part is decoded and lowercased, and for every marker the href nearest
// before the marker's first occurrence is taken. The first hit ends the
// search. This is a string scan, not an HTML parser: the result is lowercased
// and entities are left alone.
func ExtractUnsubscribe(headers []model.Header, parts []model.BodyPart) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, "List-Unsubscribe") {
			return h.Value
		}
	}
	for _, p := range parts {
		if !p.IsHTML() || p.Data == "" {
			continue
		}
		text, err := p.Text()
		if err != nil {
			continue
		}
		body := strings.ToLower(text)
		for _, marker := range unsubscribeMarkers {
			if href := hrefBefore(body, marker); href != "" {
				return href
			}
		}
	}
	return ""
}

// hrefBefore returns the quoted href value closest before the first
// occurrence of marker in body.
func hrefBefore(body, marker string) string {
	end := strings.Index(body, marker)
	if end < 0 {
		return ""
	}
	start := strings.LastIndex(body[:end], `href="`)
	if start < 0 {
		return ""
	}
	start += len(`href="`)
	n := strings.IndexByte(body[start:], '"')
	if n < 0 {
		return ""
	}
	return body[start : start+n]
}
