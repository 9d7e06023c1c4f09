package logic_test

import (
	"context"
	"github.com/stretchr/testify/assert"
	"silo_bridge/dal"
	"silo_bridge/dto"
	"silo_bridge/logic"
	"testing"
)

func TestTwitterCanonicalizeUrl(t *testing.T) {
	silo := logic.NewTwitterSilo(nil)
	src := &dal.Source{Key: "twitter:snarfed_org", Silo: "twitter", SiloId: "snarfed_org"}
	ctx := context.Background()

	good := map[string]string{
		"http://twitter.com/snarfed_org/statuses/123?foo=bar": "https://twitter.com/snarfed_org/status/123",
		"https://mobile.twitter.com/snarfed_org/status/123/":  "https://twitter.com/snarfed_org/status/123",
		"https://www.twitter.com/snarfed_org/status/123#x":    "https://twitter.com/snarfed_org/status/123",
		"HTTP://Other.example/Path":                           "http://other.example/Path",
	}
	for in, want := range good {
		got, ok, err := silo.CanonicalizeUrl(ctx, src, in, nil)
		assert.NoError(t, err)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	bad := []string{
		"https://twitter.com/snarfed_org",
		"https://twitter.com/snarfed_org/status/123?protected_redirect=true",
		"not a url",
	}
	for _, in := range bad {
		_, ok, _ := silo.CanonicalizeUrl(ctx, src, in, nil)
		assert.False(t, ok, in)
	}
}

func TestTwitterIdentity(t *testing.T) {
	silo := logic.NewTwitterSilo(nil)
	src := &dal.Source{Key: "twitter:1", Silo: "twitter", SiloId: "1"}

	assert.Equal(t, "tag:twitter.com,2013:1", silo.UserTagId(src))
	objId, err := silo.ResolveObjectId(context.Background(), src, "987", nil)
	assert.NoError(t, err)
	assert.Equal(t, "987", objId)
	assert.False(t, silo.OnNewSyndicatedPost(src, "https://twitter.com/x/status/1"))
}

func TestTwitterIsPublic(t *testing.T) {
	silo := logic.NewTwitterSilo(nil)
	src := &dal.Source{Key: "twitter:1", Silo: "twitter", SiloId: "1"}

	_, known := silo.IsPublic(src, &dto.AsObject{})
	assert.False(t, known)

	public, known := silo.IsPublic(src, &dto.AsObject{To: []*dto.AsObject{{ObjectType: "group", Alias: "@public"}}})
	assert.True(t, known)
	assert.True(t, public)

	public, known = silo.IsPublic(src, &dto.AsObject{
		Verb:   "post",
		Object: &dto.AsObject{To: []*dto.AsObject{{ObjectType: "group", Alias: "@private"}}},
	})
	assert.True(t, known)
	assert.False(t, public)
}

func TestTwitterWithoutClientIsTransient(t *testing.T) {
	silo := logic.NewTwitterSilo(nil)
	_, err := silo.FetchActivities(context.Background(), &dal.Source{Key: "twitter:1"})
	assert.True(t, logic.IsTransient(err))
}
