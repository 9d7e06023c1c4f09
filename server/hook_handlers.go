package server

import (
	"bytes"
	"io"
	"net/http"
	"silo_bridge/dto"
	"silo_bridge/logic"
	"silo_bridge/shared"
)

// Callbacks from the delivery service, authenticated by HTTP signature.
type hookHandlerGroup struct {
	cfg        *shared.Config
	logger     shared.ILogger
	metrics    logic.IMetrics
	sigChecker logic.IHttpSigChecker
	propagator logic.IPropagator
}

func NewHookHandlerGroup(
	cfg *shared.Config,
	logger shared.ILogger,
	metrics logic.IMetrics,
	sigChecker logic.IHttpSigChecker,
	propagator logic.IPropagator,
) IHandlerGroup {
	res := hookHandlerGroup{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		sigChecker: sigChecker,
		propagator: propagator,
	}
	return &res
}

func (hg *hookHandlerGroup) Prefix() string {
	return "/hooks"
}

func (hg *hookHandlerGroup) GroupDefs() []handlerDef {
	return []handlerDef{
		{"POST", "/begin", func(w http.ResponseWriter, r *http.Request) { hg.postBegin(w, r) }},
		{"POST", "/outcome", func(w http.ResponseWriter, r *http.Request) { hg.postOutcome(w, r) }},
	}
}

func (hg *hookHandlerGroup) AuthMW() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return hg.authMW(next)
	}
}

// authMW checks the signature over the body, then hands the body on unchanged.
func (hg *hookHandlerGroup) authMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		body := readBody(hg.logger, w, r)
		if body == nil {
			return
		}
		problem, err := hg.sigChecker.Check(r, body)
		if err != nil {
			hg.logger.Errorf("Failed to check callback signature: %v", err)
			writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
			return
		}
		if problem != "" {
			hg.logger.Warnf("Rejected callback to %s: %s", r.URL.Path, problem)
			writeErrorResponse(w, badAuthorization, http.StatusUnauthorized)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (hg *hookHandlerGroup) postBegin(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartApiRequestIn("hooks/begin")
	defer obs.Finish()

	var req dto.RecordRef
	if !readJsonBody(hg.logger, w, r, &req) {
		return
	}
	wm, err := hg.propagator.BeginDelivery(req.Kind, req.Key)
	if err != nil {
		writeLogicError(hg.logger, w, "Beginning delivery", err)
		return
	}
	writeJsonResponse(hg.logger, w, toWebmentionsDto(req.Kind, wm))
}

func (hg *hookHandlerGroup) postOutcome(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartApiRequestIn("hooks/outcome")
	defer obs.Finish()

	var req dto.DeliveryOutcome
	if !readJsonBody(hg.logger, w, r, &req) {
		return
	}
	if req.Target == "" {
		writeErrorResponse(w, "Missing 'target'", http.StatusBadRequest)
		return
	}
	wm, err := hg.propagator.RecordOutcome(req.Kind, req.Key, req.Target, req.Outcome)
	if err != nil {
		writeLogicError(hg.logger, w, "Recording outcome", err)
		return
	}
	hg.logger.Debugf("Outcome for %s -> %s: %s", req.Key, req.Target, req.Outcome)
	writeJsonResponse(hg.logger, w, toWebmentionsDto(req.Kind, wm))
}
