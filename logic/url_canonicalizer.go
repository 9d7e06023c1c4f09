package logic

import (
	"context"
	"fmt"
	"silo_bridge/dal"
	"silo_bridge/shared"
)

// IUrlCanonicalizer canonicalizes URLs as seen from one source, so silo permalinks
// come out the same way target collection produces them.
type IUrlCanonicalizer interface {
	Canonicalize(ctx context.Context, sourceKey, rawUrl string) (string, error)
}

type urlCanonicalizer struct {
	logger shared.ILogger
	repo   dal.IRepo
	silos  ISiloRegistry
	cache  IResolutionCache
}

func NewUrlCanonicalizer(logger shared.ILogger, repo dal.IRepo, silos ISiloRegistry, cache IResolutionCache) IUrlCanonicalizer {
	return &urlCanonicalizer{logger, repo, silos, cache}
}

// Canonicalize uses the source's silo for URLs on the silo's domain and the generic
// form for everything else. An empty sourceKey always yields the generic form.
func (uc *urlCanonicalizer) Canonicalize(ctx context.Context, sourceKey, rawUrl string) (string, error) {

	if sourceKey == "" {
		return CanonicalizeUrl(rawUrl)
	}
	src, err := uc.repo.GetSource(sourceKey)
	if err != nil {
		return "", err
	}
	if src == nil {
		return "", fmt.Errorf("%w: source %s", ErrNotFound, sourceKey)
	}
	silo, err := uc.silos.Get(src.Silo)
	if err != nil {
		return "", err
	}
	if !shared.UrlOnDomain(rawUrl, []string{silo.Domain()}) {
		return CanonicalizeUrl(rawUrl)
	}

	uc.cache.Begin(src.Key)
	defer func() {
		if flushErr := uc.cache.Flush(src.Key); flushErr != nil {
			uc.logger.Warnf("Failed to flush resolution caches of %s: %v", src.Key, flushErr)
		}
	}()
	canon, ok, err := silo.CanonicalizeUrl(ctx, src, rawUrl, nil)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("not a canonical %s URL: %s", silo.Name(), rawUrl)
	}
	return canon, nil
}
