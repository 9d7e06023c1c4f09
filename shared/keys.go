package shared

import (
	"fmt"
	"strings"
)

// Tag URIs carry the year the silo's id scheme was fixed.
const tagUriYear = 2013

// SourceKey is the stable identity of one authenticated silo account.
func SourceKey(silo, id string) string {
	return silo + ":" + id
}

// SplitSourceKey is the inverse of SourceKey.
func SplitSourceKey(key string) (silo, id string, err error) {
	ix := strings.IndexByte(key, ':')
	if ix <= 0 || ix == len(key)-1 {
		return "", "", fmt.Errorf("invalid source key: %q", key)
	}
	return key[:ix], key[ix+1:], nil
}

// TagUri builds the identity of a silo object, e.g. tag:twitter.com,2013:12345.
func TagUri(domain, id string) string {
	return fmt.Sprintf("tag:%s,%d:%s", domain, tagUriYear, id)
}

// ParseTagUri returns the domain and id of a tag URI, or empty strings if it is not one.
func ParseTagUri(uri string) (domain, id string) {
	if !strings.HasPrefix(uri, "tag:") {
		return "", ""
	}
	rest := uri[len("tag:"):]
	commaIx := strings.IndexByte(rest, ',')
	if commaIx <= 0 {
		return "", ""
	}
	colonIx := strings.IndexByte(rest[commaIx:], ':')
	if colonIx < 0 {
		return "", ""
	}
	return rest[:commaIx], rest[commaIx+colonIx+1:]
}
