package normalize

import (
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Hosts that resolve to themselves regardless of the public suffix list.
var registeredOverrides = map[string]string{
	"nhs.uk":        "nhs.uk",
	"amazon.com.be": "amazon.com.be",
}

var apexOverrides = map[string]string{
	"amazon.com.be": "amazon",
}

// RegisteredDomain returns the eTLD+1 of a hostname or URL, for example
// "example.co.uk" for "https://www.example.co.uk/login". It returns "" when
// the input has no registrable domain: IP literals, bare public suffixes and
// hosts under a TLD the suffix list does not manage.
func RegisteredDomain(hostOrURL string) string {
	host := hostname(hostOrURL)
	if host == "" {
		return ""
	}
	if d, ok := registeredOverrides[host]; ok {
		return d
	}
	label, suffix := split(host)
	if label == "" {
		return ""
	}
	return label + "." + suffix
}

// ApexLabel returns the registrable label of a hostname or URL with its
// public suffix removed, e.g. "example" for "www.example.co.uk".
func ApexLabel(hostOrURL string) string {
	host := hostname(hostOrURL)
	if host == "" {
		return ""
	}
	if l, ok := apexOverrides[host]; ok {
		return l
	}
	label, _ := split(host)
	return label
}

// hostname reduces a URL, host:port or bare domain to a lowercase hostname.
func hostname(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, rest, ok := strings.Cut(s, "://"); ok {
		s = rest
	} else {
		s = strings.TrimPrefix(s, "//")
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		s = s[i+1:]
	}
	if strings.HasPrefix(s, "[") {
		// bracketed IPv6 literal
		return ""
	}
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, ".")
	if s == "" || net.ParseIP(s) != nil || strings.Contains(s, "..") {
		return ""
	}
	return s
}

// split separates host into its registrable label and ICANN public suffix.
// Private suffix list entries (github.io, blogspot.com, ...) are ignored so
// that "user.github.io" registers under "github.io".
func split(host string) (label, suffix string) {
	suffix, ok := icannSuffix(host)
	if !ok || host == suffix {
		return "", ""
	}
	rest, found := strings.CutSuffix(host, "."+suffix)
	if !found || rest == "" {
		return "", ""
	}
	if i := strings.LastIndexByte(rest, '.'); i >= 0 {
		rest = rest[i+1:]
	}
	return rest, suffix
}

func icannSuffix(host string) (string, bool) {
	suffix, icann := publicsuffix.PublicSuffix(host)
	for !icann {
		i := strings.IndexByte(suffix, '.')
		if i < 0 {
			// unmanaged single-label TLD
			return "", false
		}
		suffix, icann = publicsuffix.PublicSuffix(suffix[i+1:])
	}
	return suffix, true
}
