package logic

import (
	"net/url"
	"strings"
)

// DedupeUrls keeps one URL per equivalence class, where two URLs are equivalent if they
// match after dropping the scheme and a trailing slash. An https member wins over http;
// otherwise the first one seen stays. Classes keep the order they were first seen in.
func DedupeUrls(urls []string) []string {
	res := make([]string, 0, len(urls))
	seen := make(map[string]int, len(urls))
	for _, u := range urls {
		u = withRootPath(u)
		id := dedupeIdentity(u)
		if ix, ok := seen[id]; ok {
			if isHttps(u) && !isHttps(res[ix]) {
				res[ix] = u
			}
			continue
		}
		seen[id] = len(res)
		res = append(res, u)
	}
	return res
}

// SameTarget is true if a and b fall into the same DedupeUrls class.
func SameTarget(a, b string) bool {
	return dedupeIdentity(withRootPath(a)) == dedupeIdentity(withRootPath(b))
}

func withRootPath(rawUrl string) string {
	u, err := url.Parse(rawUrl)
	if err != nil || u.Host == "" || u.Path != "" || u.Opaque != "" {
		return rawUrl
	}
	u.Path = "/"
	return u.String()
}

func dedupeIdentity(rawUrl string) string {
	id := rawUrl
	if ix := strings.Index(id, "://"); ix >= 0 {
		id = id[ix+3:]
	}
	return strings.TrimSuffix(id, "/")
}

func isHttps(rawUrl string) bool {
	return strings.HasPrefix(strings.ToLower(rawUrl), "https://")
}
