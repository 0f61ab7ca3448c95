// Package normalize converts raw source lines into canonical, deduplicated
// domain sets.
package normalize

import (
	"strings"

	"emaildomains/pkg/domain"
)

// commentMarker introduces a comment line in every list format we consume.
const commentMarker = "#"

// Lines returns a canonical domain set for the given raw lines, plus the
// number of rejected tokens.
//
// The normalization rules are intentionally strict and applied in order per
// line:
//   - Strip surrounding whitespace; skip empty lines and comment lines
//   - Lower-case the entire token
//   - Reject tokens without a minimal domain shape: at least one dot, no
//     internal whitespace, no protocol scheme prefix
//   - Deduplicate case-insensitively within the source
//
// Rejected tokens are dropped silently; they are counted but never surfaced as
// errors.
func Lines(lines []string) (domain.DomainSet, int) {
	set := domain.DomainSet{}
	invalid := 0

	for _, line := range lines {
		token := strings.TrimSpace(line)
		if token == "" || strings.HasPrefix(token, commentMarker) {
			continue
		}

		token = strings.ToLower(token)
		if !plausibleDomain(token) {
			invalid++

			continue
		}

		set.Add(token)
	}

	return set, invalid
}

// plausibleDomain checks the minimal shape of a domain token. The filter is
// deliberately loose: upstream lists contain punycode, deep subdomains and
// rare TLDs, and dropping a valid domain is worse than keeping an odd one.
func plausibleDomain(token string) bool {
	if strings.Contains(token, "://") {
		return false
	}
	if strings.ContainsAny(token, " \t") {
		return false
	}
	if !strings.Contains(token, ".") {
		return false
	}
	// a token that starts or ends with a dot is a fragment, not a domain
	if strings.HasPrefix(token, ".") || strings.HasSuffix(token, ".") {
		return false
	}

	return true
}
