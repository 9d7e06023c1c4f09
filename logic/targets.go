package logic

import (
	"context"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"html"
	"regexp"
	"silo_bridge/dal"
	"silo_bridge/dto"
	"silo_bridge/shared"
	"strings"
)

// ITargetCollector computes the canonical set of URLs a reaction should notify.
type ITargetCollector interface {
	Collect(ctx context.Context, src *dal.Source, silo ISilo, activity, reaction *dto.AsObject) (*Targets, error)
}

type Targets struct {
	Urls      []string // deduplicated canonical targets
	Originals []string // originals found for silo URLs through syndication
}

var reBareUrl = regexp.MustCompile(`https?://[^\s<>"'()\[\]{}]+`)

const trailingUrlPunct = ".,;:!?"

type targetCollector struct {
	cfg      *shared.Config
	logger   shared.ILogger
	matcher  ISyndicationMatcher
	resolver IRedirectResolver
	blocked  IBlockedTargets
}

func NewTargetCollector(
	cfg *shared.Config,
	logger shared.ILogger,
	matcher ISyndicationMatcher,
	resolver IRedirectResolver,
	blocked IBlockedTargets,
) ITargetCollector {
	if !cfg.ResolveRedirects {
		resolver = nil
	}
	return &targetCollector{cfg, logger, matcher, resolver, blocked}
}

// ExtractLinks returns the anchors of an HTML body followed by bare URLs in its text.
func ExtractLinks(content string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	var res []string
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			if href := strings.TrimSpace(s.AttrOr("href", "")); href != "" {
				res = append(res, href)
			}
		})
	}
	plain := html.UnescapeString(bluemonday.StrictPolicy().Sanitize(content))
	for _, match := range reBareUrl.FindAllString(plain, -1) {
		res = append(res, strings.TrimRight(match, trailingUrlPunct))
	}
	return res
}

// post returns the silo post an activity wraps, or the activity itself.
func post(activity *dto.AsObject) *dto.AsObject {
	if activity == nil {
		return nil
	}
	if activity.Object != nil && activity.Verb != "" {
		return activity.Object
	}
	if activity.Object != nil && activity.ObjectType == "" {
		return activity.Object
	}
	return activity
}

// candidates lists every URL the reaction and its post point at, in discovery order.
func (tc *targetCollector) candidates(src *dal.Source, silo ISilo, activity, reaction *dto.AsObject) []string {
	var res []string
	userTagId := ""
	if silo != nil {
		userTagId = silo.UserTagId(src)
	}

	addRefs := func(objs []*dto.AsObject) {
		for _, o := range objs {
			if o != nil {
				res = append(res, o.AllUrls()...)
			}
		}
	}
	addBody := func(o *dto.AsObject) {
		if o == nil {
			return
		}
		res = append(res, o.UpstreamDuplicates...)
		res = append(res, ExtractLinks(o.Content)...)
		for _, tag := range o.Tags {
			if tag == nil || tag.ObjectType == "hashtag" {
				continue
			}
			res = append(res, tag.AllUrls()...)
			// The user mentioning themselves means their own site
			if userTagId != "" && tag.Id == userTagId {
				res = append(res, src.DomainUrls...)
			}
		}
	}

	if reaction != nil {
		addRefs(reaction.InReplyTo)
		if reaction.Context != nil {
			addRefs(reaction.Context.InReplyTo)
		}
		if reaction.Object != nil {
			addRefs([]*dto.AsObject{reaction.Object})
		}
	}
	if p := post(activity); p != nil {
		res = append(res, p.AllUrls()...)
		addBody(p)
	}
	if reaction != nil {
		addBody(reaction)
	}
	return res
}

func (tc *targetCollector) Collect(
	ctx context.Context,
	src *dal.Source,
	silo ISilo,
	activity, reaction *dto.AsObject,
) (*Targets, error) {

	res := &Targets{Urls: []string{}, Originals: []string{}}

	if silo != nil {
		if public, known := silo.IsPublic(src, activity); known && !public {
			tc.logger.Infof("Not propagating reactions to non-public post of %s", src.Key)
			return res, nil
		}
	}

	var urls []string
	var originals []string
	for _, cand := range tc.candidates(src, silo, activity, reaction) {
		if silo != nil && shared.UrlOnDomain(cand, []string{silo.Domain()}) {
			canon, ok, err := silo.CanonicalizeUrl(ctx, src, cand, activity)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			found, _, err := tc.matcher.OriginalsFor(src.Key, canon)
			if err != nil {
				return nil, err
			}
			for _, orig := range found {
				if c, err := CanonicalizeUrl(orig); err == nil {
					urls = append(urls, c)
					originals = append(originals, c)
				}
			}
			continue
		}
		canon, err := CanonicalizeUrl(cand)
		if err != nil {
			tc.logger.Warnf("Omitting malformed target %q: %v", shared.Snippet(cand, shared.MaxLogSnippetLen), err)
			continue
		}
		urls = append(urls, canon)
		urls = append(urls, tc.redirected(ctx, canon)...)
	}

	kept := urls[:0]
	for _, u := range urls {
		if tc.blocked.IsBlocked(u) {
			tc.logger.Debugf("Dropping blocked target %s", u)
			continue
		}
		kept = append(kept, u)
	}
	res.Urls = DedupeUrls(kept)
	res.Originals = DedupeUrls(originals)
	return res, nil
}

// redirected returns the canonical final location of url if it differs from url.
func (tc *targetCollector) redirected(ctx context.Context, url string) []string {
	if tc.resolver == nil {
		return nil
	}
	final, err := tc.resolver.Resolve(ctx, url)
	if err != nil || final == "" {
		return nil
	}
	canon, err := CanonicalizeUrl(final)
	if err != nil || SameTarget(canon, url) {
		return nil
	}
	return []string{canon}
}
