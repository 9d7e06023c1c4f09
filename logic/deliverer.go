package logic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/go-fed/httpsig"
	"github.com/google/uuid"
	"io"
	"net/http"
	"net/url"
	"silo_bridge/dal"
	"silo_bridge/dto"
	"silo_bridge/shared"
	"time"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../test/mocks/mock_deliverer.go -package mocks silo_bridge/logic IDeliverer

// IDeliverer hands a propagation task to the service that sends the webmentions.
type IDeliverer interface {
	Deliver(ctx context.Context, item *dal.TaskQueueItem) error
}

// RequestIdHeader correlates a delivery with the outcome callbacks it triggers.
const RequestIdHeader = "X-Request-Id"

// Headers covered by the signature of deliveries and outcome callbacks.
var signedHeaders = []string{httpsig.RequestTarget, "Host", "Date", "Digest"}

type deliverer struct {
	cfg       *shared.Config
	logger    shared.ILogger
	userAgent shared.IUserAgent
	metrics   IMetrics
	client    *http.Client
}

func NewDeliverer(
	cfg *shared.Config,
	logger shared.ILogger,
	userAgent shared.IUserAgent,
	metrics IMetrics,
) IDeliverer {
	client := &http.Client{Timeout: time.Duration(cfg.HttpTimeoutSec) * time.Second}
	return &deliverer{cfg, logger, userAgent, metrics, client}
}

// SignRequest adds Date, Digest and an HMAC-SHA256 Signature header to req.
func SignRequest(req *http.Request, body []byte, keyId string, secret []byte) error {

	req.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	req.Header.Set("Host", req.URL.Host)

	signer, _, err := httpsig.NewSigner(
		[]httpsig.Algorithm{httpsig.HMAC_SHA256},
		httpsig.DigestSha256,
		signedHeaders,
		httpsig.Signature,
		0)
	if err != nil {
		return err
	}
	return signer.SignRequest(secret, keyId, req, body)
}

func (d *deliverer) Deliver(ctx context.Context, item *dal.TaskQueueItem) error {

	if d.cfg.DeliveryHookUrl == "" {
		return errors.New("no delivery hook configured")
	}
	hookUrl, err := url.Parse(d.cfg.DeliveryHookUrl)
	if err != nil {
		return fmt.Errorf("invalid delivery hook url: %w", err)
	}

	obs := d.metrics.StartDeliveryOut(item.Queue)
	defer obs.Finish()

	task := dto.DeliveryTask{
		Name:       item.Name,
		Queue:      item.Queue,
		Key:        item.Key,
		EnqueuedAt: item.EnqueuedAt,
	}
	bodyJson, _ := json.Marshal(&task)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hookUrl.String(), bytes.NewReader(bodyJson))
	if err != nil {
		return err
	}
	d.userAgent.AddUserAgent(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIdHeader, uuid.NewString())

	secret := []byte(d.cfg.Secrets.DeliveryHookSecret)
	if err = SignRequest(req, bodyJson, d.cfg.Secrets.DeliveryHookKeyId, secret); err != nil {
		return err
	}

	d.logger.Infof("Delivering task %s for %s", item.Name, item.Key)
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, shared.MaxLogSnippetLen))

	if resp.StatusCode >= 300 {
		msg := fmt.Sprintf("got status %s: response: %s", resp.Status, respBody)
		d.logger.Warnf("Delivery POST failed: %s", msg)
		return errors.New(msg)
	}
	return nil
}
