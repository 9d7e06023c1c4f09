package shared

import (
	"net/url"
	"strings"
	"unicode"
)

// MaxLogSnippetLen bounds user-supplied text echoed into log lines.
const MaxLogSnippetLen = 80

// HostMatchesDomain is true if host equals domain or is a subdomain of it.
func HostMatchesDomain(host, domain string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// UrlOnDomain is true if the URL parses and its host is on one of the domains.
func UrlOnDomain(rawUrl string, domains []string) bool {
	u, err := url.Parse(rawUrl)
	if err != nil || u.Hostname() == "" {
		return false
	}
	for _, d := range domains {
		if HostMatchesDomain(u.Hostname(), d) {
			return true
		}
	}
	return false
}

// Snippet shortens text to at most maxRunes runes plus an ellipsis,
// cutting at the last word boundary that fits.
func Snippet(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	cut := maxRunes
	for i := maxRunes; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace) + "…"
}
