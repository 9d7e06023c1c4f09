package logic

import (
	"fmt"
	"net/url"
	"regexp"
	"silo_bridge/shared"
	"strings"
)

// Query parameters with these prefixes only track where a click came from.
var trackingParamPrefixes = []string{"utm_"}

// CanonicalizeUrl is the silo-independent normal form of a URL: lower-case scheme
// and host, no default port, no tracking query parameters, no empty query.
// It is idempotent. Anything that is not an absolute http(s) URL is an error.
func CanonicalizeUrl(rawUrl string) (string, error) {
	u, err := parseHttpUrl(rawUrl)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func parseHttpUrl(rawUrl string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawUrl))
	if err != nil {
		return nil, err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("not an http(s) URL: %q", rawUrl)
	}
	if u.Host == "" || u.Opaque != "" {
		return nil, fmt.Errorf("URL has no host: %q", rawUrl)
	}
	u.Host = strings.ToLower(u.Host)
	if port := u.Port(); (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = u.Hostname()
		if strings.Contains(u.Host, ":") {
			u.Host = "[" + u.Host + "]"
		}
	}
	u.RawQuery = stripTrackingParams(u.RawQuery)
	u.ForceQuery = false
	return u, nil
}

// stripTrackingParams drops tracking parameters and keeps every other one in its original order and encoding.
func stripTrackingParams(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	var kept []string
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		name := part
		if ix := strings.IndexByte(part, '='); ix >= 0 {
			name = part[:ix]
		}
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		if !isTrackingParam(name) {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "&")
}

func isTrackingParam(name string) bool {
	name = strings.ToLower(name)
	for _, prefix := range trackingParamPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// SiloUrlCanonicalizer rewrites URLs on one silo's domain into its permalink form.
// URLs on other domains only get the generic treatment.
type SiloUrlCanonicalizer struct {
	Domain    string         // twitter.com
	Subdomain string         // www; empty means the bare domain
	KeepQuery bool           // query carries the post id on some silos
	Approve   *regexp.Regexp // canonical URLs must match this, if set
	Reject    *regexp.Regexp // URLs matching this are never canonical
}

// Canonicalize returns the canonical form and whether the URL is acceptable at all.
func (c *SiloUrlCanonicalizer) Canonicalize(rawUrl string) (string, bool) {
	u, err := parseHttpUrl(rawUrl)
	if err != nil {
		return "", false
	}
	if !c.OwnsHost(u.Hostname()) {
		return u.String(), true
	}

	u.Scheme = "https"
	u.Host = c.Domain
	if c.Subdomain != "" {
		u.Host = c.Subdomain + "." + c.Domain
	}
	if !c.KeepQuery {
		u.RawQuery = ""
	}
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = strings.TrimSuffix(u.RawPath, "/")
	}

	res := u.String()
	if c.Reject != nil && (c.Reject.MatchString(rawUrl) || c.Reject.MatchString(res)) {
		return "", false
	}
	if c.Approve != nil && !c.Approve.MatchString(res) {
		return "", false
	}
	return res, true
}

func (c *SiloUrlCanonicalizer) OwnsHost(host string) bool {
	return shared.HostMatchesDomain(host, c.Domain)
}
