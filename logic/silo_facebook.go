package logic

import (
	"context"
	"net/url"
	"regexp"
	"silo_bridge/dal"
	"silo_bridge/dto"
	"silo_bridge/shared"
	"strings"
)

const facebookDomain = "facebook.com"

var (
	reFbPostPath  = regexp.MustCompile(`^/[^/]+/(?:posts|videos|activity)/([^/?]+)`)
	reFbPhotoPath = regexp.MustCompile(`^/[^/]+/photos/(?:[^/]+/)?([0-9]+)`)
	reFbNotesPath = regexp.MustCompile(`^/notes/(?:[^/]+/)*([0-9]+)/?$`)
	reAllDigits   = regexp.MustCompile(`^[0-9]+$`)
)

// First path segments that are never a username.
var fbReservedPaths = map[string]bool{
	"photo.php":     true,
	"permalink.php": true,
	"story.php":     true,
	"notes":         true,
	"events":        true,
	"groups":        true,
	"pages":         true,
	"profile.php":   true,
}

type facebookSilo struct {
	logger shared.ILogger
	cache  IResolutionCache
	canon  *SiloUrlCanonicalizer
	client ISiloClient
}

func NewFacebookSilo(logger shared.ILogger, cache IResolutionCache, client ISiloClient) ISilo {
	if client == nil {
		client = &noClient{"facebook"}
	}
	return &facebookSilo{
		logger: logger,
		cache:  cache,
		canon: &SiloUrlCanonicalizer{
			Domain:    facebookDomain,
			Subdomain: "www",
			KeepQuery: true,
			Approve:   regexp.MustCompile(`^https://www\.facebook\.com/[^/?]+/posts/[^/?]+`),
		},
		client: client,
	}
}

func (fb *facebookSilo) setClient(client ISiloClient) {
	fb.client = client
}

func (fb *facebookSilo) Name() string {
	return "facebook"
}

func (fb *facebookSilo) Domain() string {
	return facebookDomain
}

func (fb *facebookSilo) UserTagId(src *dal.Source) string {
	return shared.TagUri(facebookDomain, src.SiloId)
}

func (fb *facebookSilo) FetchActivities(ctx context.Context, src *dal.Source) ([]*dto.AsObject, error) {
	return fb.client.FetchActivities(ctx, src)
}

// fbPostId extracts the post id from the path of a Facebook URL.
func fbPostId(u *url.URL) string {
	for _, re := range []*regexp.Regexp{reFbPostPath, reFbPhotoPath, reFbNotesPath} {
		if groups := re.FindStringSubmatch(u.Path); groups != nil {
			return groups[1]
		}
	}
	return ""
}

// CanonicalizeUrl rewrites Facebook URLs to https://www.facebook.com/USERID/posts/ID,
// resolving post ids to object ids and usernames to the numeric user id.
func (fb *facebookSilo) CanonicalizeUrl(ctx context.Context, src *dal.Source, rawUrl string, activity *dto.AsObject) (string, bool, error) {

	u, err := parseHttpUrl(rawUrl)
	if err != nil {
		return "", false, nil
	}
	if !fb.canon.OwnsHost(u.Hostname()) {
		return u.String(), true, nil
	}

	postUrl := func(id string) string {
		return "https://www.facebook.com/" + src.SiloId + "/posts/" + id
	}

	res := u.String()
	query := u.Query()
	ids := query["story_fbid"]
	if len(ids) == 0 {
		ids = query["fbid"]
	}
	if len(ids) != 0 && ids[0] != "" {
		res = postUrl(ids[0])
	} else if urlId := fbPostId(u); urlId != "" {
		if strings.HasPrefix(u.Path, "/notes/") {
			res = postUrl(urlId)
		} else {
			objectId, err := fb.cachedResolveObjectId(ctx, src, urlId, activity)
			if err != nil {
				return "", false, err
			}
			if objectId != "" {
				res = postUrl(objectId)
			}
		}
	}

	alternateIds := append([]string{}, src.InferredUserIds...)
	if src.Username != "" {
		alternateIds = append([]string{src.Username}, alternateIds...)
	} else if src.InferredUsername != "" {
		alternateIds = append([]string{src.InferredUsername}, alternateIds...)
	}
	for _, alt := range alternateIds {
		if alt == "" {
			continue
		}
		res = strings.ReplaceAll(res, "facebook.com/"+alt+"/", "facebook.com/"+src.SiloId+"/")
	}

	res, ok := fb.canon.Canonicalize(res)
	return res, ok, nil
}

// cachedResolveObjectId looks the post up in the resolved_object_ids cache first.
// Failed lookups are not cached.
func (fb *facebookSilo) cachedResolveObjectId(ctx context.Context, src *dal.Source, postId string, activity *dto.AsObject) (string, error) {
	// USERID_POSTID
	if ix := strings.LastIndexByte(postId, '_'); ix >= 0 && ix < len(postId)-1 {
		postId = postId[ix+1:]
	}
	if objectId, ok := fb.cache.GetObjectId(src.Key, postId); ok {
		return objectId, nil
	}
	objectId, err := fb.ResolveObjectId(ctx, src, postId, activity)
	if IsTransient(err) || IsDisableSource(err) {
		return "", err
	}
	if err != nil {
		fb.logger.Warnf("Failed to resolve Facebook object id for %s: %v", postId, err)
		return "", nil
	}
	fb.cache.PutObjectId(src.Key, postId, objectId)
	return objectId, nil
}

func (fb *facebookSilo) ResolveObjectId(ctx context.Context, src *dal.Source, postId string, activity *dto.AsObject) (string, error) {
	if activity != nil {
		obj := activity
		if activity.Object != nil {
			obj = activity.Object
		}
		for _, id := range obj.FbObjectForIds {
			if id == postId {
				if _, objectId := shared.ParseTagUri(obj.Id); objectId != "" {
					return objectId, nil
				}
			}
		}
	}
	return fb.client.ResolveObjectId(ctx, src, postId)
}

// IsPublic checks the post_publics cache, then the activity's audience, caching what it learns.
func (fb *facebookSilo) IsPublic(src *dal.Source, activity *dto.AsObject) (bool, bool) {
	if activity == nil {
		return false, false
	}
	obj := activity
	if activity.Object != nil {
		obj = activity.Object
	}
	_, postId := shared.ParseTagUri(obj.Id)
	if postId != "" {
		if public, ok := fb.cache.GetPublic(src.Key, postId); ok {
			return public, true
		}
	}
	public, known := audiencePublic(activity)
	if known && postId != "" {
		fb.cache.PutPublic(src.Key, postId, public)
	}
	return public, known
}

// OnNewSyndicatedPost infers the user's username or alternate numeric ids from the
// first path segment of a syndication URL.
func (fb *facebookSilo) OnNewSyndicatedPost(src *dal.Source, syndication string) bool {
	u, err := url.Parse(syndication)
	if err != nil || !fb.canon.OwnsHost(u.Hostname()) {
		return false
	}
	parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || fbReservedPaths[parts[0]] {
		return false
	}
	first := parts[0]
	if reAllDigits.MatchString(first) {
		if first == src.SiloId {
			return false
		}
		for _, id := range src.InferredUserIds {
			if id == first {
				return false
			}
		}
		src.InferredUserIds = append(src.InferredUserIds, first)
		return true
	}
	if src.Username != "" || src.InferredUsername == first {
		return false
	}
	src.InferredUsername = first
	return true
}
