package normalize

import (
	"strings"
	"unicode"

	"github.com/passkeyradar/radar/pkg/constants"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Brand substrings that make two names equivalent whenever both contain one.
// Coarse on purpose; do not extend without re-validating merged output.
var brandMarkers = []string{"microsoft", "twitter", "aws"}

var dropUnprintable = runes.Remove(runes.Predicate(func(r rune) bool {
	return !isPrintable(r)
}))

// isPrintable matches ASCII letters, digits, punctuation and whitespace.
func isPrintable(r rune) bool {
	if r > unicode.MaxASCII {
		return false
	}
	return (r >= 0x20 && r <= 0x7e) || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}

// NormalizeName drops characters outside printable ASCII, lowercases and
// removes spaces: "Pay Pal™" becomes "paypal".
func NormalizeName(name string) string {
	cleaned, _, err := transform.String(dropUnprintable, name)
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(cleaned), " ", "")
}

// NamesEquivalent reports whether two display names denote the same site.
func NamesEquivalent(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == nb {
		return true
	}
	if len(na) >= constants.MinTokenMatchLength && containsToken(b, na) {
		return true
	}
	if len(nb) >= constants.MinTokenMatchLength && containsToken(a, nb) {
		return true
	}
	for _, m := range brandMarkers {
		if strings.Contains(na, m) && strings.Contains(nb, m) {
			return true
		}
	}
	return false
}

// containsToken reports whether normalized equals one whitespace token of name.
func containsToken(name, normalized string) bool {
	for _, tok := range strings.Fields(name) {
		if NormalizeName(tok) == normalized {
			return true
		}
	}
	return false
}
