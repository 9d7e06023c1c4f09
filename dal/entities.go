package dal

import (
	"time"
)

// Delivery statuses shared by responses and blog posts.
const (
	StatusNew        = "new"
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusError      = "error"
)

const (
	SourceEnabled  = "enabled"
	SourceDisabled = "disabled"
)

type Source struct {
	Key               string // facebook:212038
	Silo              string // facebook
	SiloId            string // 212038
	CreatedAt         time.Time
	Features          []string // listen, publish, webmention
	Domains           []string // snarfed.org
	DomainUrls        []string // https://snarfed.org/
	Status            string
	PollStatus        string
	Username          string
	InferredUsername  string
	InferredUserIds   []string
	ResolvedObjectIds []byte // zstd-compressed JSON object
	PostPublics       []byte // zstd-compressed JSON object
	Version           int
}

// Webmentions holds the per-target delivery state common to responses and blog posts.
// Every target is in exactly one of the five lists.
type Webmentions struct {
	Key       string
	SourceKey string
	Status    string
	Unsent    []string
	Sent      []string
	Error     []string
	Failed    []string
	Skipped   []string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

type Response struct {
	Webmentions
	Type             string   // post, comment, like, repost, rsvp
	ActivitiesJson   []string // silo posts this is a reaction to
	ResponseJson     string
	OldResponseJsons []string       // previous versions of ResponseJson, newest last
	OriginalPosts    []string       // originals found through syndication discovery
	UrlsToActivity   map[string]int // original post URL to index in ActivitiesJson; nil unless several activities
}

type BlogPost struct {
	Webmentions
	FeedItem string
}

// SyndicatedPost links an original post with its silo copy. Either side may be
// nil, which records that we looked for the counterpart and found nothing.
type SyndicatedPost struct {
	Id          int64
	SourceKey   string
	Original    *string
	Syndication *string
	CreatedAt   time.Time
}

type TaskQueueItem struct {
	Id         int
	Name       string
	Queue      string
	Key        string
	EnqueuedAt time.Time
	NotBefore  time.Time
	Attempts   int
}
