package util

import (
	"net/mail"
	"strings"
)

// SenderAddress extracts the mail address from a From header value.
// - Parses RFC 5322 values like "Name <User@Example.COM>"
// - Lowercases
// - Falls back to the first parsable entry of a comma separated list
// Returns empty string if parsing fails or address is missing. The raw header
// stays the sender's identity; this is only used where a provider needs a bare
// address to search on.
func SenderAddress(fromHeader string) string {
	if fromHeader == "" {
		return ""
	}
	addr, err := mail.ParseAddress(fromHeader)
	if err != nil || addr == nil {
		// Some headers may be a list; try a crude fallback by splitting on comma.
		addr = nil
		for _, p := range strings.Split(fromHeader, ",") {
			a, e := mail.ParseAddress(strings.TrimSpace(p))
			if e == nil && a != nil {
				addr = a
				break
			}
		}
		if addr == nil {
			return ""
		}
	}
	return strings.ToLower(strings.TrimSpace(addr.Address))
}

// DisplayName returns the human part of a From header.
// E.g., "Twitter <notify@twitter.com>" -> "Twitter"
func DisplayName(fromHeader string) string {
	if idx := strings.Index(fromHeader, "<"); idx > 0 {
		name := strings.TrimSpace(fromHeader[:idx])
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}
	// Fallback to local-part as "Name".
	email := SenderAddress(fromHeader)
	if at := strings.IndexByte(email, '@'); at > 0 {
		parts := strings.Split(email[:at], ".")
		for i := range parts {
			if parts[i] == "" {
				continue
			}
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
		return strings.Join(parts, " ")
	}
	return fromHeader
}
