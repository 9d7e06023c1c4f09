package logic

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/klauspost/compress/zstd"
	"maps"
	"silo_bridge/dal"
	"silo_bridge/shared"
	"sync"
)

const (
	CacheResolvedObjectIds = "resolved_object_ids"
	CachePostPublics       = "post_publics"
)

// IResolutionCache memoizes silo lookups per source. Entries are loaded lazily into an
// in-memory overlay and written back, capped, by Flush. Absence means unknown.
// A unit of work calls Begin, then ends with exactly one Flush or Discard. Concurrent
// units on one source share the overlay until the last of them ends.
type IResolutionCache interface {
	Begin(sourceKey string)
	Get(sourceKey, cacheName, key string) (any, bool)
	Put(sourceKey, cacheName, key string, value any)
	Flush(sourceKey string) error
	Discard(sourceKey string)
	GetObjectId(sourceKey, postId string) (objectId string, ok bool)
	PutObjectId(sourceKey, postId, objectId string)
	GetPublic(sourceKey, postId string) (public bool, ok bool)
	PutPublic(sourceKey, postId string, public bool)
}

type cacheOverlay struct {
	entries map[string]map[string]any
	dirty   map[string]bool
	units   int // begun and not yet flushed or discarded
}

type resolutionCache struct {
	logger   shared.ILogger
	repo     dal.IRepo
	metrics  IMetrics
	caps     map[string]int
	enc      *zstd.Encoder
	dec      *zstd.Decoder
	mu       sync.Mutex
	overlays map[string]*cacheOverlay
}

func NewResolutionCache(cfg *shared.Config, logger shared.ILogger, repo dal.IRepo, metrics IMetrics) IResolutionCache {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
	return &resolutionCache{
		logger:  logger,
		repo:    repo,
		metrics: metrics,
		caps: map[string]int{
			CacheResolvedObjectIds: cfg.ResolvedObjectIdsCap,
			CachePostPublics:       cfg.PostPublicsCap,
		},
		enc:      enc,
		dec:      dec,
		overlays: make(map[string]*cacheOverlay),
	}
}

func blobField(src *dal.Source, cacheName string) *[]byte {
	switch cacheName {
	case CacheResolvedObjectIds:
		return &src.ResolvedObjectIds
	case CachePostPublics:
		return &src.PostPublics
	}
	return nil
}

// decodeBlob never fails: a blob that does not decompress or parse is an empty cache.
func (rc *resolutionCache) decodeBlob(sourceKey, cacheName string, blob []byte) map[string]any {
	res := make(map[string]any)
	if len(blob) == 0 {
		return res
	}
	data, err := rc.dec.DecodeAll(blob, nil)
	if err != nil {
		rc.logger.Warnf("Discarding corrupt %s cache of %s: %v", cacheName, sourceKey, err)
		return res
	}
	if err = json.Unmarshal(data, &res); err != nil {
		rc.logger.Warnf("Discarding malformed %s cache of %s: %v", cacheName, sourceKey, err)
		return make(map[string]any)
	}
	return res
}

func (rc *resolutionCache) encodeBlob(entries map[string]any) ([]byte, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return rc.enc.EncodeAll(data, nil), nil
}

// lockedOverlay returns the overlay of sourceKey with rc.mu held. A missing overlay is
// hydrated from the database with the lock released, so a slow load of one source
// does not hold up the others.
func (rc *resolutionCache) lockedOverlay(sourceKey string) *cacheOverlay {
	rc.mu.Lock()
	if ov, ok := rc.overlays[sourceKey]; ok {
		return ov
	}
	rc.mu.Unlock()

	loaded := rc.load(sourceKey)

	rc.mu.Lock()
	if ov, ok := rc.overlays[sourceKey]; ok {
		// Another unit got there first
		return ov
	}
	rc.overlays[sourceKey] = loaded
	return loaded
}

func (rc *resolutionCache) load(sourceKey string) *cacheOverlay {
	ov := &cacheOverlay{
		entries: make(map[string]map[string]any),
		dirty:   make(map[string]bool),
	}
	src, err := rc.repo.GetSource(sourceKey)
	if err != nil {
		rc.logger.Warnf("Failed to load caches of %s; starting empty: %v", sourceKey, err)
	}
	for name := range rc.caps {
		if src != nil {
			ov.entries[name] = rc.decodeBlob(sourceKey, name, *blobField(src, name))
		} else {
			ov.entries[name] = make(map[string]any)
		}
	}
	return ov
}

func (rc *resolutionCache) Begin(sourceKey string) {
	ov := rc.lockedOverlay(sourceKey)
	ov.units++
	rc.mu.Unlock()
}

func (rc *resolutionCache) Get(sourceKey, cacheName, key string) (any, bool) {
	ov := rc.lockedOverlay(sourceKey)
	defer rc.mu.Unlock()

	entries, ok := ov.entries[cacheName]
	if !ok {
		return nil, false
	}
	val, ok := entries[key]
	return val, ok
}

func (rc *resolutionCache) Put(sourceKey, cacheName, key string, value any) {
	ov := rc.lockedOverlay(sourceKey)
	defer rc.mu.Unlock()

	entries, ok := ov.entries[cacheName]
	if !ok {
		rc.logger.Warnf("Ignoring put into unknown cache %s", cacheName)
		return
	}
	entries[key] = value
	ov.dirty[cacheName] = true
}

// endUnit must be called with rc.mu held. It forgets the overlay once no unit uses it.
func (rc *resolutionCache) endUnit(sourceKey string) (*cacheOverlay, bool) {
	ov, ok := rc.overlays[sourceKey]
	if !ok {
		return nil, false
	}
	ov.units--
	if ov.units <= 0 {
		delete(rc.overlays, sourceKey)
	}
	return ov, true
}

// Discard ends a unit of work that failed. Its unflushed entries are dropped unless
// another unit on the same source is still running and will flush them.
func (rc *resolutionCache) Discard(sourceKey string) {
	rc.mu.Lock()
	rc.endUnit(sourceKey)
	rc.mu.Unlock()
}

// Flush ends a unit of work: it merges the dirty caches into the stored blobs, applies
// the caps and writes the source. The overlay is forgotten when the last unit ends,
// so the next cycle loads fresh from the database.
func (rc *resolutionCache) Flush(sourceKey string) error {

	rc.mu.Lock()
	ov, ok := rc.endUnit(sourceKey)
	var pending map[string]map[string]any
	if ok && len(ov.dirty) != 0 {
		pending = make(map[string]map[string]any, len(ov.dirty))
		for name := range ov.dirty {
			pending[name] = maps.Clone(ov.entries[name])
		}
		clear(ov.dirty)
	}
	rc.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	for attempt := 0; attempt < maxCasAttempts; attempt++ {
		src, err := rc.repo.GetSource(sourceKey)
		if err != nil {
			return err
		}
		if src == nil {
			return fmt.Errorf("cannot flush caches of unknown source %s", sourceKey)
		}
		for name, entries := range pending {
			field := blobField(src, name)
			merged := rc.decodeBlob(sourceKey, name, *field)
			for k, v := range entries {
				merged[k] = v
			}
			evicted := capEntries(merged, rc.caps[name])
			if evicted > 0 {
				rc.metrics.CacheEvicted(name, evicted)
				rc.logger.Debugf("Evicted %d entries from %s cache of %s", evicted, name, sourceKey)
			}
			if *field, err = rc.encodeBlob(merged); err != nil {
				return err
			}
		}
		err = rc.repo.UpdateSource(src)
		if errors.Is(err, dal.ErrConflict) {
			continue
		}
		return err
	}
	return ErrTooManyConflicts
}

// capEntries drops all but the maxCount largest keys and returns how many were dropped.
func capEntries(entries map[string]any, maxCount int) int {
	if maxCount <= 0 || len(entries) <= maxCount {
		return 0
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	keep := make(map[string]struct{}, maxCount)
	for _, k := range largestCacheKeys(keys, maxCount) {
		keep[k] = struct{}{}
	}
	evicted := 0
	for _, k := range keys {
		if _, ok := keep[k]; !ok {
			delete(entries, k)
			evicted++
		}
	}
	return evicted
}

// GetObjectId returns "" with ok=true when the post is known to resolve to no object.
func (rc *resolutionCache) GetObjectId(sourceKey, postId string) (string, bool) {
	val, ok := rc.Get(sourceKey, CacheResolvedObjectIds, postId)
	if !ok {
		return "", false
	}
	if val == nil {
		return "", true
	}
	str, isStr := val.(string)
	if !isStr {
		return "", false
	}
	return str, true
}

func (rc *resolutionCache) PutObjectId(sourceKey, postId, objectId string) {
	var val any
	if objectId != "" {
		val = objectId
	}
	rc.Put(sourceKey, CacheResolvedObjectIds, postId, val)
}

func (rc *resolutionCache) GetPublic(sourceKey, postId string) (bool, bool) {
	val, ok := rc.Get(sourceKey, CachePostPublics, postId)
	if !ok {
		return false, false
	}
	public, isBool := val.(bool)
	return public, isBool
}

func (rc *resolutionCache) PutPublic(sourceKey, postId string, public bool) {
	rc.Put(sourceKey, CachePostPublics, postId, public)
}
