package logic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/mmcdole/gofeed"
	"net/http"
	"net/url"
	"silo_bridge/dal"
	"silo_bridge/shared"
	"sort"
	"strings"
	"time"
)

// IBlogPosts turns the items of a source's own feed into BlogPosts whose outbound
// links get webmentions.
type IBlogPosts interface {
	ProcessFeed(ctx context.Context, src *dal.Source, body []byte) ([]*dal.BlogPost, error)
	FetchFeed(ctx context.Context, src *dal.Source, feedUrl string) ([]*dal.BlogPost, error)
}

type blogPosts struct {
	cfg       *shared.Config
	logger    shared.ILogger
	repo      dal.IRepo
	queue     ITaskQueue
	userAgent shared.IUserAgent
	blocked   IBlockedTargets
}

func NewBlogPosts(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
	queue ITaskQueue,
	userAgent shared.IUserAgent,
	blocked IBlockedTargets,
) IBlogPosts {
	return &blogPosts{cfg, logger, repo, queue, userAgent, blocked}
}

func (bp *blogPosts) FetchFeed(ctx context.Context, src *dal.Source, feedUrl string) ([]*dal.BlogPost, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedUrl, nil)
	if err != nil {
		return nil, err
	}
	bp.userAgent.AddUserAgent(req)

	client := http.Client{}
	client.Timeout = time.Second * time.Duration(bp.cfg.HttpTimeoutSec)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %v", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFeed, err)
	}
	return bp.processItems(ctx, src, feed.Items)
}

func (bp *blogPosts) ProcessFeed(ctx context.Context, src *dal.Source, body []byte) ([]*dal.BlogPost, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFeed, err)
	}
	return bp.processItems(ctx, src, feed.Items)
}

// processItems stores each item not seen before, oldest first, and returns the new ones.
// On error it returns the posts stored up to that point.
func (bp *blogPosts) processItems(ctx context.Context, src *dal.Source, items []*gofeed.Item) ([]*dal.BlogPost, error) {

	sortByTime(items)
	var res []*dal.BlogPost
	for _, itm := range items {
		fixPodcastLink(itm)
		post, err := bp.storePostIfNew(ctx, src, itm)
		if post != nil {
			res = append(res, post)
		}
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func itemTime(itm *gofeed.Item) time.Time {
	var t time.Time
	if itm.PublishedParsed != nil {
		t = *itm.PublishedParsed
	}
	if itm.UpdatedParsed != nil && itm.UpdatedParsed.After(t) {
		t = *itm.UpdatedParsed
	}
	return t
}

func sortByTime(items []*gofeed.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return itemTime(items[i]).Before(itemTime(items[j]))
	})
}

func fixPodcastLink(itm *gofeed.Item) {
	if itm.Link != "" {
		return
	}
	for _, enc := range itm.Enclosures {
		if !strings.HasPrefix(enc.Type, "audio/") || enc.URL == "" {
			continue
		}
		parsedUrl, err := url.Parse(enc.URL)
		if err != nil {
			continue
		}
		parsedUrl.RawQuery = ""
		itm.Link = parsedUrl.String()
		return
	}
}

// itemTargets returns the canonical outbound links of a feed item. Links back to
// the source's own domains are not targets.
func (bp *blogPosts) itemTargets(src *dal.Source, itm *gofeed.Item, permalink string) []string {

	base, _ := url.Parse(itm.Link)
	content := itm.Content
	if content == "" {
		content = itm.Description
	}

	var res []string
	for _, link := range ExtractLinks(content) {
		if base != nil {
			if ref, err := base.Parse(link); err == nil {
				link = ref.String()
			}
		}
		canon, err := CanonicalizeUrl(link)
		if err != nil {
			bp.logger.Debugf("Skipping link in %s: %v", permalink, err)
			continue
		}
		if shared.UrlOnDomain(canon, src.Domains) || SameTarget(canon, permalink) || bp.blocked.IsBlocked(canon) {
			continue
		}
		res = append(res, canon)
	}
	return DedupeUrls(res)
}

func (bp *blogPosts) storePostIfNew(ctx context.Context, src *dal.Source, itm *gofeed.Item) (*dal.BlogPost, error) {

	if itm.Link == "" {
		bp.logger.Warnf("Feed item without link in feed of %s: %s", src.Key, shared.Snippet(itm.Title, shared.MaxLogSnippetLen))
		return nil, nil
	}
	permalink, err := CanonicalizeUrl(itm.Link)
	if err != nil {
		bp.logger.Warnf("Feed item with malformed link in feed of %s: %v", src.Key, err)
		return nil, nil
	}

	existing, err := bp.repo.GetBlogPost(permalink)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, bp.requeuePending(ctx, existing)
	}

	itemJson, err := json.Marshal(itm)
	if err != nil {
		bp.logger.Warnf("Failed to serialize feed item %s of %s: %v", permalink, src.Key, err)
		return nil, nil
	}
	post := &dal.BlogPost{
		Webmentions: dal.Webmentions{
			Key:       permalink,
			SourceKey: src.Key,
			Status:    dal.StatusNew,
			Unsent:    bp.itemTargets(src, itm, permalink),
		},
		FeedItem: string(itemJson),
	}
	if len(post.Unsent) == 0 {
		post.Status = dal.StatusComplete
	}
	if err = bp.repo.InsertBlogPost(post); err != nil {
		if errors.Is(err, dal.ErrConflict) {
			return nil, nil
		}
		return nil, err
	}

	bp.logger.Infof("New blog post from %s: %s with %d link(s)", src.Key, permalink, len(post.Unsent))
	if len(post.Unsent) == 0 {
		return post, nil
	}
	params := TaskParams{Key: post.Key, Version: post.Version}
	if _, err = bp.queue.Enqueue(ctx, QueuePropagateBlogPost, params); err != nil {
		return post, err
	}
	return post, nil
}

// requeuePending enqueues the task of a known post that never left the new state.
// Task names are stable per version, so a task that is still queued is not duplicated.
func (bp *blogPosts) requeuePending(ctx context.Context, post *dal.BlogPost) error {
	if post.Status != dal.StatusNew || len(post.Unsent) == 0 {
		return nil
	}
	params := TaskParams{Key: post.Key, Version: post.Version}
	if _, err := bp.queue.Enqueue(ctx, QueuePropagateBlogPost, params); err != nil {
		bp.logger.Errorf("Failed to re-enqueue task for blog post %s: %v", post.Key, err)
		return err
	}
	return nil
}
