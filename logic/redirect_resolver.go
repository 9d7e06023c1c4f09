package logic

import (
	"context"
	"net/http"
	"silo_bridge/shared"
	"sync"
	"time"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../test/mocks/mock_redirect_resolver.go -package mocks silo_bridge/logic IRedirectResolver

// IRedirectResolver follows HTTP redirects to a URL's final location.
type IRedirectResolver interface {
	Resolve(ctx context.Context, rawUrl string) (string, error)
}

const maxResolvedRedirects = 2000
const maxRedirectHops = 10

type redirectResolver struct {
	cfg       *shared.Config
	logger    shared.ILogger
	userAgent shared.IUserAgent
	client    *http.Client
	mu        sync.Mutex
	resolved  map[string]string
}

func NewRedirectResolver(cfg *shared.Config, logger shared.ILogger, userAgent shared.IUserAgent) IRedirectResolver {
	client := &http.Client{
		Timeout: time.Duration(cfg.HttpTimeoutSec) * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirectHops {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return &redirectResolver{
		cfg:       cfg,
		logger:    logger,
		userAgent: userAgent,
		client:    client,
		resolved:  make(map[string]string),
	}
}

func (rr *redirectResolver) Resolve(ctx context.Context, rawUrl string) (string, error) {

	rr.mu.Lock()
	if res, ok := rr.resolved[rawUrl]; ok {
		rr.mu.Unlock()
		return res, nil
	}
	rr.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawUrl, nil)
	if err != nil {
		return "", err
	}
	rr.userAgent.AddUserAgent(req)
	resp, err := rr.client.Do(req)
	if err != nil {
		rr.logger.Debugf("Redirect resolution failed for %s: %v", rawUrl, err)
		return "", err
	}
	_ = resp.Body.Close()
	res := resp.Request.URL.String()

	rr.mu.Lock()
	if len(rr.resolved) >= maxResolvedRedirects {
		rr.resolved = make(map[string]string)
	}
	rr.resolved[rawUrl] = res
	rr.mu.Unlock()

	return res, nil
}
