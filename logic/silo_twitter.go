package logic

import (
	"context"
	"regexp"
	"silo_bridge/dal"
	"silo_bridge/dto"
	"silo_bridge/shared"
	"strings"
)

const twitterDomain = "twitter.com"

type twitterSilo struct {
	canon  *SiloUrlCanonicalizer
	client ISiloClient
}

func NewTwitterSilo(client ISiloClient) ISilo {
	if client == nil {
		client = &noClient{"twitter"}
	}
	return &twitterSilo{
		canon: &SiloUrlCanonicalizer{
			Domain:  twitterDomain,
			Approve: regexp.MustCompile(`^https://twitter\.com/[^/?]+/status/[^/?]+`),
			Reject:  regexp.MustCompile(`\?protected_redirect=true`),
		},
		client: client,
	}
}

func (tw *twitterSilo) setClient(client ISiloClient) {
	tw.client = client
}

func (tw *twitterSilo) Name() string {
	return "twitter"
}

func (tw *twitterSilo) Domain() string {
	return twitterDomain
}

func (tw *twitterSilo) UserTagId(src *dal.Source) string {
	return shared.TagUri(twitterDomain, src.SiloId)
}

func (tw *twitterSilo) FetchActivities(ctx context.Context, src *dal.Source) ([]*dto.AsObject, error) {
	return tw.client.FetchActivities(ctx, src)
}

func (tw *twitterSilo) CanonicalizeUrl(ctx context.Context, src *dal.Source, rawUrl string, activity *dto.AsObject) (string, bool, error) {
	if shared.UrlOnDomain(rawUrl, []string{tw.canon.Domain}) {
		rawUrl = strings.Replace(rawUrl, "/statuses/", "/status/", 1)
	}
	res, ok := tw.canon.Canonicalize(rawUrl)
	return res, ok, nil
}

// ResolveObjectId is the identity: tweet ids are already object ids.
func (tw *twitterSilo) ResolveObjectId(ctx context.Context, src *dal.Source, postId string, activity *dto.AsObject) (string, error) {
	return postId, nil
}

func (tw *twitterSilo) IsPublic(src *dal.Source, activity *dto.AsObject) (bool, bool) {
	return audiencePublic(activity)
}

func (tw *twitterSilo) OnNewSyndicatedPost(src *dal.Source, syndication string) bool {
	return false
}
