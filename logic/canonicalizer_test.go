package logic_test

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"silo_bridge/logic"
	"testing"
)

func TestCanonicalizeUrl(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"HTTP://Example.COM/Path", "http://example.com/Path"},
		{"https://example.com:443/a", "https://example.com/a"},
		{"http://example.com:80/a", "http://example.com/a"},
		{"http://example.com:8080/a", "http://example.com:8080/a"},
		{"http://example.com/a?", "http://example.com/a"},
		{"http://example.com/a?utm_source=tw&b=1&utm_medium=x", "http://example.com/a?b=1"},
		{"http://example.com/a?z=1&a=2", "http://example.com/a?z=1&a=2"},
		{"  http://example.com/a  ", "http://example.com/a"},
	}
	for _, c := range cases {
		got, err := logic.CanonicalizeUrl(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)

		again, err := logic.CanonicalizeUrl(got)
		require.NoError(t, err)
		assert.Equal(t, got, again, "not idempotent: %s", c.in)
	}
}

func TestCanonicalizeUrlRejectsNonHttp(t *testing.T) {
	for _, in := range []string{"", "not a url", "mailto:me@example.com", "ftp://example.com/x", "/relative/path", "http:///nohost"} {
		_, err := logic.CanonicalizeUrl(in)
		assert.Error(t, err, in)
	}
}

func TestSiloUrlCanonicalizer(t *testing.T) {
	canon := &logic.SiloUrlCanonicalizer{Domain: "example.com", Subdomain: "www"}

	got, ok := canon.Canonicalize("http://example.com/user/post/?x=1#frag")
	assert.True(t, ok)
	assert.Equal(t, "https://www.example.com/user/post", got)

	got, ok = canon.Canonicalize("http://m.example.com/user/post")
	assert.True(t, ok)
	assert.Equal(t, "https://www.example.com/user/post", got)

	// Not ours: generic form only
	got, ok = canon.Canonicalize("HTTP://Other.org/a/?utm_campaign=z")
	assert.True(t, ok)
	assert.Equal(t, "http://other.org/a/", got)

	_, ok = canon.Canonicalize("nope")
	assert.False(t, ok)
}
