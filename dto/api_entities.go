package dto

import "time"

// Webmentions is the reporting view of a Response or BlogPost.
type Webmentions struct {
	Key            string         `json:"key"`
	Kind           string         `json:"kind"`
	SourceKey      string         `json:"source_key"`
	Type           string         `json:"type,omitempty"`
	Status         string         `json:"status"`
	Unsent         []string       `json:"unsent"`
	Sent           []string       `json:"sent"`
	Error          []string       `json:"error"`
	Failed         []string       `json:"failed"`
	Skipped        []string       `json:"skipped"`
	Originals      []string       `json:"original_posts,omitempty"`
	UrlsToActivity map[string]int `json:"urls_to_activity,omitempty"` // set when the response spans several activities
	Activities     int            `json:"activities_len,omitempty"`
	History        int            `json:"history_len"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type SyndicationLookup struct {
	SourceKey string   `json:"source_key"`
	Url       string   `json:"url"`
	Known     bool     `json:"known"`
	Matches   []string `json:"matches"`
}

// DeliveryTask is the body of a propagation task handed to the delivery service.
type DeliveryTask struct {
	Name       string    `json:"name"`
	Queue      string    `json:"queue"`
	Key        string    `json:"key"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// DeliveryOutcome is reported back by the delivery service for one target.
type DeliveryOutcome struct {
	Kind    string `json:"kind"`
	Key     string `json:"key"`
	Target  string `json:"target"`
	Outcome string `json:"outcome"`
}

type MarkCompleteRequest struct {
	Kind string   `json:"kind"`
	Keys []string `json:"keys"`
}

type CanonicalizeResult struct {
	Input     string `json:"input"`
	Canonical string `json:"canonical"`
}

type SourceRequest struct {
	Silo       string   `json:"silo"`
	SiloId     string   `json:"silo_id"`
	Features   []string `json:"features"`
	Domains    []string `json:"domains"`
	DomainUrls []string `json:"domain_urls"`
	Username   string   `json:"username,omitempty"`
}

type SourceResponse struct {
	Key   string `json:"key"`
	IsNew bool   `json:"is_new"`
}

// ReactionRequest carries a silo reaction and the post it reacts to.
type ReactionRequest struct {
	Activity *AsObject `json:"activity"`
	Reaction *AsObject `json:"reaction"`
}

// DiscoveryRequest reports the syndication links found on an original post.
type DiscoveryRequest struct {
	Original     string   `json:"original"`
	Syndications []string `json:"syndications"`
}

type RecordRef struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
}

// HealthReport is returned by the unauthenticated health check.
type HealthReport struct {
	Status          string `json:"status"`
	QueuedTasks     int    `json:"queued_tasks"`
	ResponsesFailed int    `json:"responses_failed"` // capped at the health check's scan limit
}
