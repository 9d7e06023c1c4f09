package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"silo_bridge/dal"
	"silo_bridge/dto"
	"silo_bridge/logic"
	"silo_bridge/shared"
)

const (
	apiKeyHeader        = "X-API-KEY"
	metricsAuthHeader   = "Authorization"
	internalErrorStr    = "500 Internal Server Error"
	badRequestStr       = "400 Invalid Request"
	notFoundStr         = "404 Not Found"
	badApiKeyStr        = "401 Missing or Invalid API Key"
	badAuthorization    = "401 Missing or Invalid Authorization"
	unavailableStr      = "503 Silo Temporarily Unavailable"
	queueUnavailableStr = "503 Task Queue Unavailable"
	sourceRevokedStr    = "409 Source Credentials Revoked"
	maxBodyBytes        = 4 << 20
)

// Defines a single HTTP handler (endpoint)
type handlerDef struct {
	method  string
	pattern string
	handler func(http.ResponseWriter, *http.Request)
}

// IHandlerGroup groups together multiple HTTP handler definitions.
type IHandlerGroup interface {
	Prefix() string
	GroupDefs() []handlerDef
	AuthMW() func(next http.Handler) http.Handler
}

// Returns the JSON serialized object as the response body; handles errors.
func writeJsonResponse(logger shared.ILogger, w http.ResponseWriter, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	var err error
	var respJson []byte
	if respJson, err = json.Marshal(resp); err != nil {
		logger.Warnf("Failed to serialize response: %v\n", err)
		http.Error(w, internalErrorStr, http.StatusInternalServerError)
		return
	}
	if _, err = fmt.Fprintln(w, string(respJson)); err != nil {
		logger.Warnf("Failed to write response: %v\n", err)
		http.Error(w, internalErrorStr, http.StatusInternalServerError)
		return
	}
}

type errorResp struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func writeErrorResponse(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	resp := errorResp{msg, code}
	respJson, _ := json.Marshal(resp)
	http.Error(w, string(respJson), code)
}

// writeLogicError maps errors from the logic layer to HTTP statuses.
func writeLogicError(logger shared.ILogger, w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, logic.ErrNotFound):
		writeErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, logic.ErrUnknownKind), errors.Is(err, logic.ErrUnknownSilo),
		errors.Is(err, logic.ErrInvalidOutcome):
		writeErrorResponse(w, err.Error(), http.StatusBadRequest)
	case logic.IsDisableSource(err):
		logger.Warnf("%s: %v", what, err)
		writeErrorResponse(w, sourceRevokedStr, http.StatusConflict)
	case logic.IsTransient(err):
		logger.Warnf("%s: %v", what, err)
		writeErrorResponse(w, unavailableStr, http.StatusServiceUnavailable)
	default:
		logger.Errorf("%s: %v", what, err)
		writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
	}
}

func readBody(logger shared.ILogger, w http.ResponseWriter, r *http.Request) []byte {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.Warnf("Failed to read request body: %v", err)
		writeErrorResponse(w, badRequestStr, http.StatusBadRequest)
		return nil
	}
	return body
}

// readJsonBody decodes the request body into obj; on failure it has already responded.
func readJsonBody[T any](logger shared.ILogger, w http.ResponseWriter, r *http.Request, obj *T) bool {
	body := readBody(logger, w, r)
	if body == nil {
		return false
	}
	if err := json.Unmarshal(body, obj); err != nil {
		logger.Infof("Invalid JSON in %s request body: %v", r.URL.Path, err)
		writeErrorResponse(w, badRequestStr, http.StatusBadRequest)
		return false
	}
	return true
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func toWebmentionsDto(kind string, wm *dal.Webmentions) *dto.Webmentions {
	return &dto.Webmentions{
		Key:       wm.Key,
		Kind:      kind,
		SourceKey: wm.SourceKey,
		Status:    wm.Status,
		Unsent:    nonNil(wm.Unsent),
		Sent:      nonNil(wm.Sent),
		Error:     nonNil(wm.Error),
		Failed:    nonNil(wm.Failed),
		Skipped:   nonNil(wm.Skipped),
		CreatedAt: wm.CreatedAt,
		UpdatedAt: wm.UpdatedAt,
	}
}

func responseToDto(resp *dal.Response) *dto.Webmentions {
	res := toWebmentionsDto(logic.KindResponse, &resp.Webmentions)
	res.Type = resp.Type
	res.Originals = resp.OriginalPosts
	res.UrlsToActivity = resp.UrlsToActivity
	res.Activities = len(resp.ActivitiesJson)
	res.History = len(resp.OldResponseJsons)
	return res
}
