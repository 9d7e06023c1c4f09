package server

import (
	"bytes"
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"silo_bridge/dal"
	"silo_bridge/dto"
	"silo_bridge/logic"
	"testing"
)

func (f *serverFixture) hook(t *testing.T, path string, body any, secret string) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "http://bridge.example"+path, bytes.NewReader(data))
	if secret != "" {
		require.NoError(t, logic.SignRequest(req, data, f.cfg.Secrets.DeliveryHookKeyId, []byte(secret)))
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestHookOutcomeFlow(t *testing.T) {
	f := newServerFixture(t)
	srcKey := f.addSource(t)
	key := "tag:twitter.com,2013:2"
	rr := f.api("POST", "/api/sources/"+srcKey+"/reactions", testReactionRequest())
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.hook(t, "/hooks/begin", &dto.RecordRef{Kind: logic.KindResponse, Key: key}, "s3cret")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, dal.StatusProcessing, decode[dto.Webmentions](t, rr).Status)

	rr = f.hook(t, "/hooks/outcome", &dto.DeliveryOutcome{
		Kind: logic.KindResponse, Key: key, Target: "http://or.ig/post", Outcome: logic.OutcomeSent,
	}, "s3cret")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	wm := decode[dto.Webmentions](t, rr)
	assert.Equal(t, []string{"http://or.ig/post"}, wm.Sent)
	assert.Equal(t, dal.StatusProcessing, wm.Status)

	rr = f.hook(t, "/hooks/outcome", &dto.DeliveryOutcome{
		Kind: logic.KindResponse, Key: key, Target: "http://other/link", Outcome: logic.OutcomeFailed,
	}, "s3cret")
	require.Equal(t, http.StatusOK, rr.Code)
	wm = decode[dto.Webmentions](t, rr)
	assert.Equal(t, dal.StatusComplete, wm.Status)
	assert.Equal(t, []string{"http://other/link"}, wm.Failed)
	assert.Empty(t, wm.Unsent)
}

func TestHookRejectsBadInput(t *testing.T) {
	f := newServerFixture(t)
	srcKey := f.addSource(t)
	key := "tag:twitter.com,2013:2"
	rr := f.api("POST", "/api/sources/"+srcKey+"/reactions", testReactionRequest())
	require.Equal(t, http.StatusOK, rr.Code)

	outcome := &dto.DeliveryOutcome{Kind: logic.KindResponse, Key: key, Target: "http://or.ig/post", Outcome: logic.OutcomeSent}

	rr = f.hook(t, "/hooks/outcome", outcome, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.hook(t, "/hooks/outcome", outcome, "guess")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	bad := *outcome
	bad.Outcome = "teleported"
	rr = f.hook(t, "/hooks/outcome", &bad, "s3cret")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	bad = *outcome
	bad.Target = "http://stranger.example/"
	rr = f.hook(t, "/hooks/outcome", &bad, "s3cret")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	bad = *outcome
	bad.Target = ""
	rr = f.hook(t, "/hooks/outcome", &bad, "s3cret")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	bad = *outcome
	bad.Key = "tag:twitter.com,2013:404"
	rr = f.hook(t, "/hooks/outcome", &bad, "s3cret")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Nothing changed
	wm, err := f.propagator.Get(logic.KindResponse, key)
	require.NoError(t, err)
	assert.Len(t, wm.Unsent, 2)
}
