package logic

import (
	"encoding/binary"
	"github.com/spaolacci/murmur3"
	"silo_bridge/dto"
	"strings"
)

const (
	TypePost    = "post"
	TypeComment = "comment"
	TypeLike    = "like"
	TypeRepost  = "repost"
	TypeRsvp    = "rsvp"
)

var verbTypes = map[string]bool{
	TypePost:    true,
	TypeComment: true,
	TypeLike:    true,
	TypeRepost:  true,
	TypeRsvp:    true,
}

var rsvpVerbs = map[string]bool{
	"rsvp-yes":        true,
	"rsvp-no":         true,
	"rsvp-maybe":      true,
	"rsvp-interested": true,
	"invite":          true,
}

// GetType classifies an ActivityStreams object as post, comment, like, repost or rsvp.
func GetType(obj *dto.AsObject) string {
	switch {
	case obj.ObjectType == "activity" && obj.Verb == "share":
		return TypeRepost
	case rsvpVerbs[obj.Verb]:
		return TypeRsvp
	case obj.ObjectType == "comment" || len(obj.InReplyTo) != 0 ||
		(obj.Context != nil && len(obj.Context.InReplyTo) != 0):
		return TypeComment
	case verbTypes[obj.Verb]:
		return obj.Verb
	default:
		return TypePost
	}
}

// GetResponseType is GetType for reactions; anything that is not a known verb is a comment.
func GetResponseType(obj *dto.AsObject) string {
	t := GetType(obj)
	if verbTypes[t] {
		return t
	}
	return TypeComment
}

// contentDigest hashes the fields of a reaction whose change means receivers hold a
// stale copy. Other fields, like avatar URLs, are ignored.
func contentDigest(obj *dto.AsObject) uint64 {
	hasher := murmur3.New64()
	write := func(s string) {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
		_, _ = hasher.Write(lenBuf[:])
		_, _ = hasher.Write([]byte(s))
	}
	var writeObj func(o *dto.AsObject, depth int)
	writeObj = func(o *dto.AsObject, depth int) {
		if o == nil || depth > 2 {
			write("")
			return
		}
		write(o.Verb)
		write(o.ObjectType)
		write(o.DisplayName)
		write(strings.TrimSpace(o.Content))
		var aliases []string
		for _, aud := range o.To {
			if aud != nil {
				aliases = append(aliases, aud.Alias+"|"+aud.Id)
			}
		}
		write(strings.Join(aliases, ","))
		var replyTo []string
		for _, irt := range o.InReplyTo {
			if irt != nil {
				replyTo = append(replyTo, irt.Id+"|"+irt.Url)
			}
		}
		write(strings.Join(replyTo, ","))
		writeObj(o.Object, depth+1)
	}
	writeObj(obj, 0)
	return hasher.Sum64()
}
