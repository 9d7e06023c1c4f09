package logic

import (
	"context"
	"errors"
	"fmt"
	"silo_bridge/dal"
	"silo_bridge/dto"
	"silo_bridge/shared"
	"slices"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../test/mocks/mock_propagator.go -package mocks silo_bridge/logic IPropagator

// Optimistic writes are retried this many times before giving up.
const maxCasAttempts = 5

const (
	KindResponse = "response"
	KindBlogPost = "blogpost"
)

const (
	QueuePropagate         = "propagate"
	QueuePropagateBlogPost = "propagate-blogpost"
)

// Per-target delivery outcomes reported by the delivery service.
const (
	OutcomeSent    = "sent"
	OutcomeError   = "error"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

const (
	reconcileNew       = "new"
	reconcileUnchanged = "unchanged"
	reconcileChanged   = "changed"
	reconcileMerged    = "merged"
	reconcileFailed    = "failed"
)

type IPropagator interface {
	Reconcile(ctx context.Context, src *dal.Source, activity, reaction *dto.AsObject) (*dal.Response, error)
	Get(kind, key string) (*dal.Webmentions, error)
	BeginDelivery(kind, key string) (*dal.Webmentions, error)
	RecordOutcome(kind, key, target, outcome string) (*dal.Webmentions, error)
	MarkError(kind, key string) error
	Retry(ctx context.Context, kind, key string) error
	MarkComplete(kind string, keys []string) error
}

type propagator struct {
	cfg     *shared.Config
	logger  shared.ILogger
	repo    dal.IRepo
	silos   ISiloRegistry
	targets ITargetCollector
	cache   IResolutionCache
	queue   ITaskQueue
	metrics IMetrics
}

func NewPropagator(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
	silos ISiloRegistry,
	targets ITargetCollector,
	cache IResolutionCache,
	queue ITaskQueue,
	metrics IMetrics,
) IPropagator {
	return &propagator{cfg, logger, repo, silos, targets, cache, queue, metrics}
}

// QueueForKind returns the task queue that propagates records of the given kind.
func QueueForKind(kind string) (string, error) {
	switch kind {
	case KindResponse:
		return QueuePropagate, nil
	case KindBlogPost:
		return QueuePropagateBlogPost, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

// KindForQueue is the inverse of QueueForKind.
func KindForQueue(queue string) (string, error) {
	switch queue {
	case QueuePropagate:
		return KindResponse, nil
	case QueuePropagateBlogPost:
		return KindBlogPost, nil
	}
	return "", fmt.Errorf("unknown queue: %s", queue)
}

// collect computes the targets of a reaction and persists whatever the silo's
// resolution caches learned on the way.
func (p *propagator) collect(ctx context.Context, src *dal.Source, activity, reaction *dto.AsObject) (*Targets, error) {
	silo, err := p.silos.Get(src.Silo)
	if err != nil {
		return nil, err
	}
	p.cache.Begin(src.Key)
	targets, err := p.targets.Collect(ctx, src, silo, activity, reaction)
	if err != nil {
		p.cache.Discard(src.Key)
		return nil, err
	}
	if flushErr := p.cache.Flush(src.Key); flushErr != nil {
		p.logger.Warnf("Failed to flush resolution caches of %s: %v", src.Key, flushErr)
	}
	return targets, nil
}

// Reconcile creates or updates the Response for reaction so that every target it
// should notify is pending delivery. Re-running it with an unchanged reaction leaves the
// record as is; if the record is still new, its task is enqueued again under the same name.
func (p *propagator) Reconcile(
	ctx context.Context,
	src *dal.Source,
	activity, reaction *dto.AsObject,
) (*dal.Response, error) {

	if reaction == nil || reaction.Id == "" {
		return nil, errors.New("reaction has no id")
	}

	targets, err := p.collect(ctx, src, activity, reaction)
	if err != nil {
		p.metrics.Reconciled(reconcileFailed)
		return nil, err
	}

	for attempt := 0; attempt < maxCasAttempts; attempt++ {
		resp, result, err := p.reconcileOnce(src, activity, reaction, targets)
		if errors.Is(err, dal.ErrConflict) {
			p.logger.Debugf("Conflict reconciling %s; attempt %d", reaction.Id, attempt+1)
			continue
		}
		if err != nil {
			p.metrics.Reconciled(reconcileFailed)
			return nil, err
		}
		p.metrics.Reconciled(result)
		if len(resp.Unsent) == 0 {
			return resp, nil
		}
		switch {
		case result != reconcileUnchanged:
			p.logger.Infof("New webmentions to propagate for %s: %d", resp.Key, len(resp.Unsent))
		case resp.Status == dal.StatusNew:
			// Same version, same task name: only recreates a task whose enqueue failed before
			p.logger.Debugf("Pending webmentions for %s; making sure a task is queued", resp.Key)
		default:
			return resp, nil
		}
		if err = p.enqueue(ctx, QueuePropagate, &resp.Webmentions); err != nil {
			return resp, err
		}
		return resp, nil
	}
	p.metrics.Reconciled(reconcileFailed)
	return nil, ErrTooManyConflicts
}

func (p *propagator) reconcileOnce(
	src *dal.Source,
	activity, reaction *dto.AsObject,
	targets *Targets,
) (*dal.Response, string, error) {

	respType := GetResponseType(reaction)
	respJson := reaction.Serialize()

	existing, err := p.repo.GetResponse(reaction.Id)
	if err != nil {
		return nil, "", err
	}

	if existing == nil {
		resp := &dal.Response{
			Webmentions: dal.Webmentions{
				Key:       reaction.Id,
				SourceKey: src.Key,
				Status:    dal.StatusNew,
				Unsent:    slices.Clone(targets.Urls),
			},
			Type:          respType,
			ResponseJson:  respJson,
			OriginalPosts: slices.Clone(targets.Originals),
		}
		if activity != nil {
			resp.ActivitiesJson = []string{activity.Serialize()}
		}
		if len(resp.Unsent) == 0 {
			resp.Status = dal.StatusComplete
		}
		return resp, reconcileNew, p.repo.InsertResponse(resp)
	}

	if existing.Type == respType && !snapshotChanged(existing.ResponseJson, reaction) {
		if activity == nil || slices.Contains(existing.ActivitiesJson, activity.Serialize()) {
			return existing, reconcileUnchanged, nil
		}
		// Same reaction seen under another activity: add its targets, keep delivered ones
		p.logger.Infof("Response %s found under another activity", existing.Key)
		existing.ActivitiesJson = append(existing.ActivitiesJson, activity.Serialize())
		mapOriginalsToActivity(existing, len(existing.ActivitiesJson)-1, targets.Originals)
		existing.OriginalPosts = mergeUrls(existing.OriginalPosts, targets.Originals)
		addUnsent(&existing.Webmentions, targets.Urls)
		return existing, reconcileMerged, p.repo.UpdateResponse(existing)
	}

	p.logger.Infof("Response changed, re-propagating: %s", existing.Key)
	existing.OldResponseJsons = append(existing.OldResponseJsons, existing.ResponseJson)
	if over := len(existing.OldResponseJsons) - p.cfg.ResponseHistoryCap; over > 0 {
		existing.OldResponseJsons = existing.OldResponseJsons[over:]
	}
	existing.ResponseJson = respJson
	existing.Type = respType
	if activity != nil {
		actJson := activity.Serialize()
		ix := slices.Index(existing.ActivitiesJson, actJson)
		if ix < 0 {
			existing.ActivitiesJson = append(existing.ActivitiesJson, actJson)
			ix = len(existing.ActivitiesJson) - 1
		}
		mapOriginalsToActivity(existing, ix, targets.Originals)
	}
	existing.OriginalPosts = mergeUrls(existing.OriginalPosts, targets.Originals)
	resetToUnsent(&existing.Webmentions, targets.Urls)
	return existing, reconcileChanged, p.repo.UpdateResponse(existing)
}

// snapshotChanged reports whether reaction differs meaningfully from the stored snapshot.
// An unreadable snapshot counts as changed.
func snapshotChanged(storedJson string, reaction *dto.AsObject) bool {
	stored, err := dto.ParseAsObject(storedJson)
	if err != nil {
		return true
	}
	return contentDigest(stored) != contentDigest(reaction)
}

// mergeUrls appends the items of extra missing from list, keeping order.
func mergeUrls(list, extra []string) []string {
	for _, item := range extra {
		if !slices.Contains(list, item) {
			list = append(list, item)
		}
	}
	return list
}

// mapOriginalsToActivity records that originals were found through activity ix. The map
// is only kept once a response has several activities; until then every original
// belongs to the only one. Call it before merging originals into OriginalPosts.
func mapOriginalsToActivity(resp *dal.Response, ix int, originals []string) {
	if len(resp.ActivitiesJson) < 2 {
		resp.UrlsToActivity = nil
		return
	}
	if resp.UrlsToActivity == nil {
		resp.UrlsToActivity = make(map[string]int, len(resp.OriginalPosts)+len(originals))
		for _, url := range resp.OriginalPosts {
			resp.UrlsToActivity[url] = 0
		}
	}
	for _, url := range originals {
		if _, ok := resp.UrlsToActivity[url]; !ok {
			resp.UrlsToActivity[url] = ix
		}
	}
}

// addUnsent queues the targets in urls that are not tracked in any list yet.
func addUnsent(wm *dal.Webmentions, urls []string) {
	known := make([]string, 0, len(wm.Unsent)+len(wm.Sent)+len(wm.Error)+len(wm.Failed)+len(wm.Skipped))
	known = append(known, wm.Unsent...)
	known = append(known, wm.Sent...)
	known = append(known, wm.Error...)
	known = append(known, wm.Failed...)
	known = append(known, wm.Skipped...)
	added := false
	for _, url := range DedupeUrls(urls) {
		if !slices.Contains(known, url) {
			wm.Unsent = append(wm.Unsent, url)
			known = append(known, url)
			added = true
		}
	}
	if added {
		wm.Status = dal.StatusNew
	}
}

// resetToUnsent moves every known target plus extra back into unsent, deduplicated.
func resetToUnsent(wm *dal.Webmentions, extra []string) {
	var all []string
	all = append(all, wm.Unsent...)
	all = append(all, wm.Sent...)
	all = append(all, wm.Error...)
	all = append(all, wm.Failed...)
	all = append(all, wm.Skipped...)
	all = append(all, extra...)
	wm.Unsent = DedupeUrls(all)
	wm.Sent, wm.Error, wm.Failed, wm.Skipped = nil, nil, nil, nil
	wm.Status = dal.StatusNew
	if len(wm.Unsent) == 0 {
		wm.Status = dal.StatusComplete
	}
}

func (p *propagator) enqueue(ctx context.Context, queue string, wm *dal.Webmentions) error {
	_, err := p.queue.Enqueue(ctx, queue, TaskParams{Key: wm.Key, Version: wm.Version})
	if err != nil {
		p.logger.Errorf("Failed to enqueue %s task for %s: %v", queue, wm.Key, err)
	}
	return err
}

// record gives uniform access to the delivery state of a response or a blog post.
type record struct {
	wm    *dal.Webmentions
	save  func() error
	resp  *dal.Response
	bpost *dal.BlogPost
}

func (p *propagator) load(kind, key string) (*record, error) {
	switch kind {
	case KindResponse:
		resp, err := p.repo.GetResponse(key)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, key)
		}
		return &record{&resp.Webmentions, func() error { return p.repo.UpdateResponse(resp) }, resp, nil}, nil
	case KindBlogPost:
		post, err := p.repo.GetBlogPost(key)
		if err != nil {
			return nil, err
		}
		if post == nil {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, key)
		}
		return &record{&post.Webmentions, func() error { return p.repo.UpdateBlogPost(post) }, nil, post}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

// modify runs fn on a fresh copy of the record and saves it, retrying on conflicts.
// If fn returns false, nothing is written.
func (p *propagator) modify(kind, key string, fn func(rec *record) (bool, error)) (*record, error) {
	for attempt := 0; attempt < maxCasAttempts; attempt++ {
		rec, err := p.load(kind, key)
		if err != nil {
			return nil, err
		}
		dirty, err := fn(rec)
		if err != nil {
			return nil, err
		}
		if !dirty {
			return rec, nil
		}
		err = rec.save()
		if errors.Is(err, dal.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
	return nil, ErrTooManyConflicts
}

func (p *propagator) Get(kind, key string) (*dal.Webmentions, error) {
	rec, err := p.load(kind, key)
	if err != nil {
		return nil, err
	}
	return rec.wm, nil
}

func (p *propagator) BeginDelivery(kind, key string) (*dal.Webmentions, error) {
	rec, err := p.modify(kind, key, func(rec *record) (bool, error) {
		if rec.wm.Status == dal.StatusProcessing {
			return false, nil
		}
		rec.wm.Status = dal.StatusProcessing
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return rec.wm, nil
}

// RecordOutcome files target under the set named by outcome. Once nothing is left
// unsent the record is complete, or errored if any target ended up in error.
func (p *propagator) RecordOutcome(kind, key, target, outcome string) (*dal.Webmentions, error) {

	switch outcome {
	case OutcomeSent, OutcomeError, OutcomeFailed, OutcomeSkipped:
	default:
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrInvalidOutcome, outcome)
	}

	rec, err := p.modify(kind, key, func(rec *record) (bool, error) {
		wm := rec.wm
		known := false
		for _, set := range []*[]string{&wm.Unsent, &wm.Sent, &wm.Error, &wm.Failed, &wm.Skipped} {
			if i := slices.Index(*set, target); i != -1 {
				*set = slices.Delete(*set, i, i+1)
				known = true
			}
		}
		if !known {
			return false, fmt.Errorf("%w: %s is not a target of %s", ErrInvalidOutcome, target, key)
		}
		switch outcome {
		case OutcomeSent:
			wm.Sent = append(wm.Sent, target)
		case OutcomeError:
			wm.Error = append(wm.Error, target)
		case OutcomeFailed:
			wm.Failed = append(wm.Failed, target)
		case OutcomeSkipped:
			wm.Skipped = append(wm.Skipped, target)
		}
		if len(wm.Unsent) == 0 {
			wm.Status = dal.StatusComplete
			if len(wm.Error) != 0 {
				wm.Status = dal.StatusError
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	p.metrics.DeliveryOutcome(outcome)
	return rec.wm, nil
}

func (p *propagator) MarkError(kind, key string) error {
	_, err := p.modify(kind, key, func(rec *record) (bool, error) {
		if rec.wm.Status == dal.StatusComplete {
			return false, nil
		}
		rec.wm.Status = dal.StatusError
		return true, nil
	})
	return err
}

// Retry puts every target of the record back into unsent and enqueues a new task.
// For responses, targets are recomputed from the stored snapshots first, so
// syndication links discovered since the last run are picked up.
func (p *propagator) Retry(ctx context.Context, kind, key string) error {

	var extra []string
	var originals [][]string
	if kind == KindResponse {
		resp, err := p.repo.GetResponse(key)
		if err != nil {
			return err
		}
		if resp == nil {
			return fmt.Errorf("%w: %s %s", ErrNotFound, kind, key)
		}
		src, err := p.repo.GetSource(resp.SourceKey)
		if err != nil {
			return err
		}
		if src == nil {
			return fmt.Errorf("%w: source %s", ErrNotFound, resp.SourceKey)
		}
		reaction, err := dto.ParseAsObject(resp.ResponseJson)
		if err != nil {
			return fmt.Errorf("stored response of %s is unreadable: %w", key, err)
		}
		// Indexed like ActivitiesJson; a nil activity stands for a response stored without one
		activities := []*dto.AsObject{nil}
		if len(resp.ActivitiesJson) != 0 {
			activities = make([]*dto.AsObject, len(resp.ActivitiesJson))
			for i, actJson := range resp.ActivitiesJson {
				activity, err := dto.ParseAsObject(actJson)
				if err != nil {
					p.logger.Warnf("Skipping unreadable activity of %s: %v", key, err)
					continue
				}
				activities[i] = activity
			}
		}
		originals = make([][]string, len(activities))
		for i, activity := range activities {
			if activity == nil && len(resp.ActivitiesJson) != 0 {
				continue
			}
			targets, err := p.collect(ctx, src, activity, reaction)
			if err != nil {
				return err
			}
			extra = append(extra, targets.Urls...)
			originals[i] = targets.Originals
		}
	}

	rec, err := p.modify(kind, key, func(rec *record) (bool, error) {
		resetToUnsent(rec.wm, extra)
		if rec.resp != nil {
			for i, found := range originals {
				if i < len(rec.resp.ActivitiesJson) {
					mapOriginalsToActivity(rec.resp, i, found)
				}
				rec.resp.OriginalPosts = mergeUrls(rec.resp.OriginalPosts, found)
			}
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	if len(rec.wm.Unsent) == 0 {
		return nil
	}
	queue, _ := QueueForKind(kind)
	return p.enqueue(ctx, queue, rec.wm)
}

func (p *propagator) MarkComplete(kind string, keys []string) error {
	for _, key := range keys {
		_, err := p.modify(kind, key, func(rec *record) (bool, error) {
			if rec.wm.Status == dal.StatusComplete {
				return false, nil
			}
			rec.wm.Status = dal.StatusComplete
			return true, nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
