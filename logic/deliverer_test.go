package logic_test

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"io"
	"net/http"
	"net/http/httptest"
	"silo_bridge/dal"
	"silo_bridge/dto"
	"silo_bridge/logic"
	"silo_bridge/shared"
	"silo_bridge/test"
	"silo_bridge/test/mocks"
	"testing"
	"time"
)

func newHookConfig(t *testing.T) *shared.Config {
	cfg := test.NewTestConfig(t)
	cfg.Secrets.DeliveryHookKeyId = "bridge"
	cfg.Secrets.DeliveryHookSecret = "s3cret"
	return cfg
}

func newTestDeliverer(t *testing.T, cfg *shared.Config) logic.IDeliverer {
	ctrl := gomock.NewController(t)
	mockMetrics := mocks.NewMockIMetrics(ctrl)
	test.SetupDummyMetrics(ctrl, mockMetrics)
	return logic.NewDeliverer(cfg, shared.NewDiscardLogger(), shared.NewUserAgent(cfg), mockMetrics)
}

func TestDeliverPostsSignedTask(t *testing.T) {
	cfg := newHookConfig(t)
	checker := logic.NewHttpSigChecker(cfg, shared.NewDiscardLogger())

	var got dto.DeliveryTask
	var problem, requestId, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		problem, _ = checker.Check(r, body)
		requestId = r.Header.Get("X-Request-Id")
		contentType = r.Header.Get("Content-Type")
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()
	cfg.DeliveryHookUrl = srv.URL + "/deliver"

	item := &dal.TaskQueueItem{
		Id:         7,
		Name:       "propagate-0123456789abcdef",
		Queue:      logic.QueuePropagate,
		Key:        "tag:twitter.com,2013:2",
		EnqueuedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	err := newTestDeliverer(t, cfg).Deliver(context.Background(), item)
	require.NoError(t, err)

	assert.Equal(t, "", problem)
	assert.NotEmpty(t, requestId)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, item.Name, got.Name)
	assert.Equal(t, item.Queue, got.Queue)
	assert.Equal(t, item.Key, got.Key)
	assert.True(t, item.EnqueuedAt.Equal(got.EnqueuedAt))
}

func TestDeliverFailsOnErrorStatus(t *testing.T) {
	cfg := newHookConfig(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream sad"))
	}))
	defer srv.Close()
	cfg.DeliveryHookUrl = srv.URL

	err := newTestDeliverer(t, cfg).Deliver(context.Background(), &dal.TaskQueueItem{Queue: logic.QueuePropagate, Key: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestDeliverWithoutHook(t *testing.T) {
	cfg := newHookConfig(t)
	err := newTestDeliverer(t, cfg).Deliver(context.Background(), &dal.TaskQueueItem{Queue: logic.QueuePropagate, Key: "k"})
	assert.Error(t, err)
}

func newSignedRequest(t *testing.T, body []byte, keyId, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "http://bridge.example/hooks/outcome", bytes.NewReader(body))
	require.NoError(t, logic.SignRequest(req, body, keyId, []byte(secret)))
	return req
}

func TestHttpSigChecker(t *testing.T) {
	cfg := newHookConfig(t)
	checker := logic.NewHttpSigChecker(cfg, shared.NewDiscardLogger())
	body := []byte(`{"kind":"response","key":"k","target":"http://a/","outcome":"sent"}`)

	problem, err := checker.Check(newSignedRequest(t, body, "bridge", "s3cret"), body)
	require.NoError(t, err)
	assert.Equal(t, "", problem)

	problem, _ = checker.Check(newSignedRequest(t, body, "bridge", "wrong"), body)
	assert.Contains(t, problem, "Incorrect signature")

	problem, _ = checker.Check(newSignedRequest(t, body, "stranger", "s3cret"), body)
	assert.Contains(t, problem, "Unknown keyId")

	tampered := []byte(`{"kind":"response","key":"k","target":"http://evil/","outcome":"sent"}`)
	problem, _ = checker.Check(newSignedRequest(t, body, "bridge", "s3cret"), tampered)
	assert.Equal(t, "Digest does not match body", problem)

	unsigned := httptest.NewRequest(http.MethodPost, "http://bridge.example/hooks/outcome", bytes.NewReader(body))
	problem, _ = checker.Check(unsigned, body)
	assert.Equal(t, "Missing 'Signature' header", problem)

	cfg.Secrets.DeliveryHookSecret = ""
	problem, _ = checker.Check(newSignedRequest(t, body, "bridge", "s3cret"), body)
	assert.Equal(t, "Callbacks are not configured", problem)
}
