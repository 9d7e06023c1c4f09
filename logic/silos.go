package logic

import (
	"context"
	"errors"
	"fmt"
	"silo_bridge/dal"
	"silo_bridge/dto"
	"silo_bridge/shared"
	"sort"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../test/mocks/mock_silo_client.go -package mocks silo_bridge/logic ISiloClient

// ISiloClient is the API client of one silo. Concrete clients live outside this service.
// Implementations return *TransientError for outages and rate limits and
// *DisableSourceError when the source's credentials are revoked.
type ISiloClient interface {
	FetchActivities(ctx context.Context, src *dal.Source) ([]*dto.AsObject, error)
	ResolveObjectId(ctx context.Context, src *dal.Source, postId string) (string, error)
}

// ISilo is what the bridge needs to know about one silo.
type ISilo interface {
	Name() string
	Domain() string
	UserTagId(src *dal.Source) string
	FetchActivities(ctx context.Context, src *dal.Source) ([]*dto.AsObject, error)
	// CanonicalizeUrl returns the permalink form of a URL on this silo, the generic form
	// of URLs elsewhere, and false if the URL can never be canonical.
	// The error is only set for upstream failures the caller must not paper over.
	CanonicalizeUrl(ctx context.Context, src *dal.Source, rawUrl string, activity *dto.AsObject) (string, bool, error)
	ResolveObjectId(ctx context.Context, src *dal.Source, postId string, activity *dto.AsObject) (string, error)
	// IsPublic reports the activity's visibility and whether it is known at all.
	IsPublic(src *dal.Source, activity *dto.AsObject) (public bool, known bool)
	// OnNewSyndicatedPost lets the silo learn from a newly matched syndication URL.
	// It returns true if it changed src.
	OnNewSyndicatedPost(src *dal.Source, syndication string) bool
}

type ISiloRegistry interface {
	Get(name string) (ISilo, error)
	ForUrl(rawUrl string) ISilo
	Names() []string
	AttachClient(name string, client ISiloClient) error
}

var errNoClient = errors.New("no API client attached")

// noClient stands in until a real client is attached.
type noClient struct {
	silo string
}

func (nc *noClient) FetchActivities(ctx context.Context, src *dal.Source) ([]*dto.AsObject, error) {
	return nil, &TransientError{Silo: nc.silo, Err: errNoClient}
}

func (nc *noClient) ResolveObjectId(ctx context.Context, src *dal.Source, postId string) (string, error) {
	return "", &TransientError{Silo: nc.silo, Err: errNoClient}
}

type clientHolder interface {
	setClient(client ISiloClient)
}

type siloRegistry struct {
	logger shared.ILogger
	silos  map[string]ISilo
}

func NewSiloRegistry(cfg *shared.Config, logger shared.ILogger, cache IResolutionCache) ISiloRegistry {

	all := []ISilo{
		NewTwitterSilo(nil),
		NewFacebookSilo(logger, cache, nil),
	}

	enabled := make(map[string]bool)
	for _, name := range cfg.Silos {
		enabled[name] = true
	}

	reg := siloRegistry{
		logger: logger,
		silos:  make(map[string]ISilo),
	}
	for _, silo := range all {
		if len(enabled) == 0 || enabled[silo.Name()] {
			reg.silos[silo.Name()] = silo
			delete(enabled, silo.Name())
		}
	}
	for name := range enabled {
		logger.Warnf("Ignoring unknown silo in config: %s", name)
	}
	return &reg
}

func (reg *siloRegistry) Get(name string) (ISilo, error) {
	if silo, ok := reg.silos[name]; ok {
		return silo, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSilo, name)
}

// ForUrl returns the silo whose domain the URL is on, or nil.
func (reg *siloRegistry) ForUrl(rawUrl string) ISilo {
	for _, silo := range reg.silos {
		if shared.UrlOnDomain(rawUrl, []string{silo.Domain()}) {
			return silo
		}
	}
	return nil
}

func (reg *siloRegistry) Names() []string {
	res := make([]string, 0, len(reg.silos))
	for name := range reg.silos {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

func (reg *siloRegistry) AttachClient(name string, client ISiloClient) error {
	silo, err := reg.Get(name)
	if err != nil {
		return err
	}
	silo.(clientHolder).setClient(client)
	reg.logger.Infof("Attached API client for %s", name)
	return nil
}

// audiencePublic inspects the "to" audience of an activity or its object.
func audiencePublic(activity *dto.AsObject) (public bool, known bool) {
	if activity == nil {
		return false, false
	}
	to := activity.To
	if len(to) == 0 && activity.Object != nil {
		to = activity.Object.To
	}
	if len(to) == 0 {
		return false, false
	}
	for _, aud := range to {
		if aud != nil && aud.Alias == "@public" {
			return true, true
		}
	}
	return false, true
}
