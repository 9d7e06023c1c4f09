package logic

import (
	"context"
	"errors"
	"silo_bridge/dal"
	"silo_bridge/shared"
)

// ISyndicationMatcher maintains the many-to-many relation between original posts
// and their silo copies for each source.
type ISyndicationMatcher interface {
	Insert(src *dal.Source, syndication, original string) error
	InsertOriginalBlank(sourceKey, original string) error
	InsertSyndicationBlank(sourceKey, syndication string) error
	OriginalsFor(sourceKey, syndication string) (originals []string, known bool, err error)
	SyndicationsFor(sourceKey, original string) (syndications []string, known bool, err error)
	RecordDiscovery(ctx context.Context, src *dal.Source, original string, syndications []string) error
}

type syndicationMatcher struct {
	logger  shared.ILogger
	repo    dal.IRepo
	silos   ISiloRegistry
	cache   IResolutionCache
	metrics IMetrics
}

func NewSyndicationMatcher(
	logger shared.ILogger,
	repo dal.IRepo,
	silos ISiloRegistry,
	cache IResolutionCache,
	metrics IMetrics,
) ISyndicationMatcher {
	return &syndicationMatcher{logger, repo, silos, cache, metrics}
}

// Insert records that syndication is a copy of original. Placeholder rows for either
// URL are removed in the same transaction. An identical pair is never stored twice.
func (sm *syndicationMatcher) Insert(src *dal.Source, syndication, original string) error {

	inserted := false
	err := sm.repo.WithSyndicationTx(src.Key, func(tx dal.ISyndicationTx) error {
		exists := false
		rows, err := tx.Find(dal.FieldSyndication, syndication)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.Original == nil {
				if err = tx.Delete(row.Id); err != nil {
					return err
				}
			} else if *row.Original == original {
				exists = true
			}
		}
		if rows, err = tx.Find(dal.FieldOriginal, original); err != nil {
			return err
		}
		for _, row := range rows {
			if row.Syndication == nil {
				if err = tx.Delete(row.Id); err != nil {
					return err
				}
			}
		}
		if exists {
			return nil
		}
		inserted = true
		return tx.Add(&original, &syndication)
	})
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	sm.metrics.SyndicationInserted("pair")
	sm.logger.Debugf("Syndication for %s: %s -> %s", src.Key, original, syndication)
	return sm.notifySilo(src, syndication)
}

// notifySilo gives the silo a chance to learn from the new pair and persists what it learned.
func (sm *syndicationMatcher) notifySilo(src *dal.Source, syndication string) error {
	silo, err := sm.silos.Get(src.Silo)
	if err != nil {
		return nil
	}
	for attempt := 0; attempt < maxCasAttempts; attempt++ {
		if !silo.OnNewSyndicatedPost(src, syndication) {
			return nil
		}
		err = sm.repo.UpdateSource(src)
		if !errors.Is(err, dal.ErrConflict) {
			return err
		}
		var fresh *dal.Source
		if fresh, err = sm.repo.GetSource(src.Key); err != nil {
			return err
		}
		if fresh == nil {
			return nil
		}
		*src = *fresh
	}
	return ErrTooManyConflicts
}

func (sm *syndicationMatcher) insertBlank(sourceKey string, field dal.SyndicationField, value string) error {
	inserted := false
	err := sm.repo.WithSyndicationTx(sourceKey, func(tx dal.ISyndicationTx) error {
		rows, err := tx.Find(field, value)
		if err != nil {
			return err
		}
		if len(rows) != 0 {
			return nil
		}
		inserted = true
		if field == dal.FieldOriginal {
			return tx.Add(&value, nil)
		}
		return tx.Add(nil, &value)
	})
	if err == nil && inserted {
		sm.metrics.SyndicationInserted(string(field) + "_blank")
	}
	return err
}

// InsertOriginalBlank remembers that original has no known silo copy yet.
func (sm *syndicationMatcher) InsertOriginalBlank(sourceKey, original string) error {
	return sm.insertBlank(sourceKey, dal.FieldOriginal, original)
}

// InsertSyndicationBlank remembers that syndication has no known original yet.
func (sm *syndicationMatcher) InsertSyndicationBlank(sourceKey, syndication string) error {
	return sm.insertBlank(sourceKey, dal.FieldSyndication, syndication)
}

// counterparts returns the distinct non-null other sides of every row matching value.
// known is true if any row exists, including a placeholder.
func (sm *syndicationMatcher) counterparts(sourceKey string, field dal.SyndicationField, value string) ([]string, bool, error) {
	rows, err := sm.repo.GetSyndicatedPosts(sourceKey, field, value)
	if err != nil {
		return nil, false, err
	}
	res := make([]string, 0, len(rows))
	seen := make(map[string]bool)
	for _, row := range rows {
		other := row.Original
		if field == dal.FieldOriginal {
			other = row.Syndication
		}
		if other != nil && !seen[*other] {
			seen[*other] = true
			res = append(res, *other)
		}
	}
	return res, len(rows) != 0, nil
}

func (sm *syndicationMatcher) OriginalsFor(sourceKey, syndication string) ([]string, bool, error) {
	return sm.counterparts(sourceKey, dal.FieldSyndication, syndication)
}

func (sm *syndicationMatcher) SyndicationsFor(sourceKey, original string) ([]string, bool, error) {
	return sm.counterparts(sourceKey, dal.FieldOriginal, original)
}

// RecordDiscovery stores what crawling an original post found: each syndication link
// is canonicalized by its silo and paired with the original. With no links found,
// a placeholder for the original is stored instead.
func (sm *syndicationMatcher) RecordDiscovery(ctx context.Context, src *dal.Source, original string, syndications []string) error {

	canonOriginal, err := CanonicalizeUrl(original)
	if err != nil {
		return err
	}
	silo, err := sm.silos.Get(src.Silo)
	if err != nil {
		return err
	}
	sm.cache.Begin(src.Key)
	defer func() {
		if flushErr := sm.cache.Flush(src.Key); flushErr != nil {
			sm.logger.Warnf("Failed to flush resolution caches of %s: %v", src.Key, flushErr)
		}
	}()

	found := 0
	for _, syn := range syndications {
		if !shared.UrlOnDomain(syn, []string{silo.Domain()}) {
			continue
		}
		canonSyn, ok, err := silo.CanonicalizeUrl(ctx, src, syn, nil)
		if err != nil {
			return err
		}
		if !ok {
			sm.logger.Debugf("Ignoring non-canonical syndication link %s", syn)
			continue
		}
		if err = sm.Insert(src, canonSyn, canonOriginal); err != nil {
			return err
		}
		found++
	}
	if found == 0 {
		return sm.InsertOriginalBlank(src.Key, canonOriginal)
	}
	return nil
}
