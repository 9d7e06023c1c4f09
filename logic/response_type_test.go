package logic_test

import (
	"github.com/stretchr/testify/assert"
	"silo_bridge/dto"
	"silo_bridge/logic"
	"testing"
)

func TestGetType(t *testing.T) {
	cases := []struct {
		obj  dto.AsObject
		want string
	}{
		{dto.AsObject{ObjectType: "activity", Verb: "share"}, logic.TypeRepost},
		{dto.AsObject{ObjectType: "activity", Verb: "rsvp-maybe"}, logic.TypeRsvp},
		{dto.AsObject{Verb: "invite"}, logic.TypeRsvp},
		{dto.AsObject{ObjectType: "comment"}, logic.TypeComment},
		{dto.AsObject{ObjectType: "note", InReplyTo: []*dto.AsObject{{Url: "http://x"}}}, logic.TypeComment},
		{dto.AsObject{ObjectType: "note", Context: &dto.AsContext{InReplyTo: []*dto.AsObject{{Url: "http://x"}}}}, logic.TypeComment},
		{dto.AsObject{ObjectType: "activity", Verb: "like"}, logic.TypeLike},
		{dto.AsObject{ObjectType: "note"}, logic.TypePost},
		{dto.AsObject{ObjectType: "activity", Verb: "frobnicate"}, logic.TypePost},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, logic.GetType(&c.obj), "%+v", c.obj)
	}
}

func TestGetResponseType(t *testing.T) {
	assert.Equal(t, logic.TypeLike, logic.GetResponseType(&dto.AsObject{ObjectType: "activity", Verb: "like"}))
	assert.Equal(t, logic.TypeComment, logic.GetResponseType(&dto.AsObject{ObjectType: "comment"}))
}

func TestInReplyToAcceptsObjectOrList(t *testing.T) {
	single, err := dto.ParseAsObject(`{"id":"tag:x,2013:1","inReplyTo":{"url":"http://a/1"}}`)
	assert.NoError(t, err)
	assert.Len(t, single.InReplyTo, 1)
	assert.Equal(t, "http://a/1", single.InReplyTo[0].Url)

	list, err := dto.ParseAsObject(`{"id":"tag:x,2013:1","inReplyTo":[{"url":"http://a/1"},{"url":"http://a/2"}]}`)
	assert.NoError(t, err)
	assert.Len(t, list.InReplyTo, 2)

	// Survives a round trip through the stored form
	again, err := dto.ParseAsObject(list.Serialize())
	assert.NoError(t, err)
	assert.Len(t, again.InReplyTo, 2)
}
