package server

import (
	"errors"
	"fmt"
	"github.com/gorilla/mux"
	"net/http"
	"silo_bridge/dal"
	"silo_bridge/dto"
	"silo_bridge/logic"
	"silo_bridge/shared"
	"strconv"
)

const defaultErrorsLimit = 100

// Admin and ingestion endpoints, for trusted collaborators holding an API key.
type apiHandlerGroup struct {
	cfg          *shared.Config
	logger       shared.ILogger
	metrics      logic.IMetrics
	repo         dal.IRepo
	silos        logic.ISiloRegistry
	propagator   logic.IPropagator
	matcher      logic.ISyndicationMatcher
	blogPosts    logic.IBlogPosts
	canonicalize logic.IUrlCanonicalizer
}

func NewApiHandlerGroup(
	cfg *shared.Config,
	logger shared.ILogger,
	metrics logic.IMetrics,
	repo dal.IRepo,
	silos logic.ISiloRegistry,
	propagator logic.IPropagator,
	matcher logic.ISyndicationMatcher,
	blogPosts logic.IBlogPosts,
	canonicalize logic.IUrlCanonicalizer,
) IHandlerGroup {
	res := apiHandlerGroup{
		cfg:          cfg,
		logger:       logger,
		metrics:      metrics,
		repo:         repo,
		silos:        silos,
		propagator:   propagator,
		matcher:      matcher,
		blogPosts:    blogPosts,
		canonicalize: canonicalize,
	}
	return &res
}

func (hg *apiHandlerGroup) Prefix() string {
	return "/api"
}

func (hg *apiHandlerGroup) GroupDefs() []handlerDef {
	return []handlerDef{
		{"POST", "/sources", func(w http.ResponseWriter, r *http.Request) { hg.postSource(w, r) }},
		{"POST", "/sources/{source}/reactions", func(w http.ResponseWriter, r *http.Request) { hg.postReaction(w, r) }},
		{"POST", "/sources/{source}/feed", func(w http.ResponseWriter, r *http.Request) { hg.postFeed(w, r) }},
		{"POST", "/sources/{source}/syndication", func(w http.ResponseWriter, r *http.Request) { hg.postDiscovery(w, r) }},
		{"GET", "/responses", func(w http.ResponseWriter, r *http.Request) { hg.getRecord(w, r, logic.KindResponse) }},
		{"GET", "/responses/errors", func(w http.ResponseWriter, r *http.Request) { hg.getResponseErrors(w, r) }},
		{"GET", "/blogposts", func(w http.ResponseWriter, r *http.Request) { hg.getRecord(w, r, logic.KindBlogPost) }},
		{"GET", "/syndication", func(w http.ResponseWriter, r *http.Request) { hg.getSyndication(w, r) }},
		{"GET", "/canonicalize", func(w http.ResponseWriter, r *http.Request) { hg.getCanonicalize(w, r) }},
		{"POST", "/retry", func(w http.ResponseWriter, r *http.Request) { hg.postRetry(w, r) }},
		{"POST", "/mark-complete", func(w http.ResponseWriter, r *http.Request) { hg.postMarkComplete(w, r) }},
	}
}

func (hg *apiHandlerGroup) AuthMW() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return hg.authMW(next)
	}
}

func (hg *apiHandlerGroup) authMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var apiKey = r.Header.Get(apiKeyHeader)
		found := false
		for _, key := range hg.cfg.Secrets.ApiKeys {
			if apiKey == key {
				found = true
			}
		}
		if !found {
			keyPart := apiKey
			if len(apiKey) > 4 {
				keyPart = apiKey[:4] + "..."
			}
			hg.logger.Warnf("API request with missing or invalid key '%s': %s", keyPart, r.URL.Path)
			writeErrorResponse(w, badApiKeyStr, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// source loads the source named in the path; on failure it has already responded.
func (hg *apiHandlerGroup) source(w http.ResponseWriter, r *http.Request) *dal.Source {
	key := mux.Vars(r)["source"]
	src, err := hg.repo.GetSource(key)
	if err != nil {
		hg.logger.Errorf("Failed to load source %s: %v", key, err)
		writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
		return nil
	}
	if src == nil {
		writeErrorResponse(w, notFoundStr, http.StatusNotFound)
		return nil
	}
	return src
}

// disableIfRevoked takes a source out of rotation once its silo rejects the credentials.
func (hg *apiHandlerGroup) disableIfRevoked(src *dal.Source, err error) {
	if !logic.IsDisableSource(err) {
		return
	}
	// Cache flushes may have bumped the version since src was loaded
	fresh, loadErr := hg.repo.GetSource(src.Key)
	if loadErr != nil || fresh == nil {
		hg.logger.Errorf("Failed to reload source %s to disable it: %v", src.Key, loadErr)
		return
	}
	fresh.Status = dal.SourceDisabled
	if updErr := hg.repo.UpdateSource(fresh); updErr != nil {
		hg.logger.Errorf("Failed to disable source %s: %v", src.Key, updErr)
		return
	}
	hg.logger.Warnf("Disabled source %s: %v", src.Key, err)
}

func (hg *apiHandlerGroup) postSource(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartApiRequestIn("sources")
	defer obs.Finish()

	var req dto.SourceRequest
	if !readJsonBody(hg.logger, w, r, &req) {
		return
	}
	if req.SiloId == "" {
		writeErrorResponse(w, "Missing 'silo_id'", http.StatusBadRequest)
		return
	}
	if _, err := hg.silos.Get(req.Silo); err != nil {
		writeLogicError(hg.logger, w, "Adding source", err)
		return
	}

	src := &dal.Source{
		Key:        shared.SourceKey(req.Silo, req.SiloId),
		Silo:       req.Silo,
		SiloId:     req.SiloId,
		Features:   req.Features,
		Domains:    req.Domains,
		DomainUrls: req.DomainUrls,
		Status:     dal.SourceEnabled,
		Username:   req.Username,
	}
	isNew, err := hg.repo.AddSourceIfNotExist(src)
	if err != nil {
		hg.logger.Errorf("Failed to add source %s: %v", src.Key, err)
		writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
		return
	}
	if isNew {
		hg.logger.Infof("Added source %s", src.Key)
	}
	writeJsonResponse(hg.logger, w, &dto.SourceResponse{Key: src.Key, IsNew: isNew})
}

func (hg *apiHandlerGroup) postReaction(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartApiRequestIn("reactions")
	defer obs.Finish()

	src := hg.source(w, r)
	if src == nil {
		return
	}
	if src.Status == dal.SourceDisabled {
		writeErrorResponse(w, "Source is disabled", http.StatusConflict)
		return
	}
	var req dto.ReactionRequest
	if !readJsonBody(hg.logger, w, r, &req) {
		return
	}
	if req.Reaction == nil || req.Reaction.Id == "" {
		writeErrorResponse(w, "Missing 'reaction' or its 'id'", http.StatusBadRequest)
		return
	}

	resp, err := hg.propagator.Reconcile(r.Context(), src, req.Activity, req.Reaction)
	if err != nil && resp == nil {
		hg.disableIfRevoked(src, err)
		writeLogicError(hg.logger, w, "Reconciling reaction", err)
		return
	}
	if err != nil {
		// Stored, but the task could not be enqueued; posting the same reaction again re-enqueues it
		hg.logger.Warnf("Reaction %s stored without task: %v", resp.Key, err)
		writeErrorResponse(w, queueUnavailableStr, http.StatusServiceUnavailable)
		return
	}
	writeJsonResponse(hg.logger, w, responseToDto(resp))
}

func (hg *apiHandlerGroup) postFeed(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartApiRequestIn("feed")
	defer obs.Finish()

	src := hg.source(w, r)
	if src == nil {
		return
	}
	body := readBody(hg.logger, w, r)
	if body == nil {
		return
	}

	posts, err := hg.blogPosts.ProcessFeed(r.Context(), src, body)
	if errors.Is(err, logic.ErrBadFeed) {
		hg.logger.Infof("Failed to process feed of %s: %v", src.Key, err)
		writeErrorResponse(w, badRequestStr, http.StatusBadRequest)
		return
	}
	if err != nil {
		// Posts stored so far keep their state; posting the feed again re-enqueues pending ones
		writeLogicError(hg.logger, w, fmt.Sprintf("Processing feed of %s", src.Key), err)
		return
	}
	res := make([]*dto.Webmentions, 0, len(posts))
	for _, post := range posts {
		res = append(res, toWebmentionsDto(logic.KindBlogPost, &post.Webmentions))
	}
	writeJsonResponse(hg.logger, w, res)
}

func (hg *apiHandlerGroup) postDiscovery(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartApiRequestIn("syndication")
	defer obs.Finish()

	src := hg.source(w, r)
	if src == nil {
		return
	}
	var req dto.DiscoveryRequest
	if !readJsonBody(hg.logger, w, r, &req) {
		return
	}
	if req.Original == "" {
		writeErrorResponse(w, "Missing 'original'", http.StatusBadRequest)
		return
	}
	if err := hg.matcher.RecordDiscovery(r.Context(), src, req.Original, req.Syndications); err != nil {
		hg.disableIfRevoked(src, err)
		writeLogicError(hg.logger, w, "Recording discovery", err)
		return
	}
	canon, _ := logic.CanonicalizeUrl(req.Original)
	syns, known, err := hg.matcher.SyndicationsFor(src.Key, canon)
	if err != nil {
		writeLogicError(hg.logger, w, "Looking up syndication", err)
		return
	}
	writeJsonResponse(hg.logger, w, &dto.SyndicationLookup{SourceKey: src.Key, Url: canon, Known: known, Matches: syns})
}

func (hg *apiHandlerGroup) getRecord(w http.ResponseWriter, r *http.Request, kind string) {

	obs := hg.metrics.StartApiRequestIn(kind)
	defer obs.Finish()

	key := r.URL.Query().Get("key")
	if key == "" {
		writeErrorResponse(w, "Missing 'key' param", http.StatusBadRequest)
		return
	}
	if kind == logic.KindResponse {
		resp, err := hg.repo.GetResponse(key)
		if err != nil {
			writeLogicError(hg.logger, w, "Loading response", err)
			return
		}
		if resp == nil {
			writeErrorResponse(w, notFoundStr, http.StatusNotFound)
			return
		}
		writeJsonResponse(hg.logger, w, responseToDto(resp))
		return
	}
	wm, err := hg.propagator.Get(kind, key)
	if err != nil {
		writeLogicError(hg.logger, w, "Loading "+kind, err)
		return
	}
	writeJsonResponse(hg.logger, w, toWebmentionsDto(kind, wm))
}

func (hg *apiHandlerGroup) getResponseErrors(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartApiRequestIn("responses/errors")
	defer obs.Finish()

	limit := defaultErrorsLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		if limit, err = strconv.Atoi(limitStr); err != nil || limit <= 0 {
			writeErrorResponse(w, "Invalid 'limit' param", http.StatusBadRequest)
			return
		}
	}
	resps, err := hg.repo.GetResponsesByStatus(dal.StatusError, limit)
	if err != nil {
		writeLogicError(hg.logger, w, "Listing errored responses", err)
		return
	}
	res := make([]*dto.Webmentions, 0, len(resps))
	for _, resp := range resps {
		res = append(res, responseToDto(resp))
	}
	writeJsonResponse(hg.logger, w, res)
}

func (hg *apiHandlerGroup) getSyndication(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartApiRequestIn("syndication")
	defer obs.Finish()

	query := r.URL.Query()
	sourceKey := query.Get("source")
	original, syndication := query.Get("original"), query.Get("syndication")
	if sourceKey == "" || (original == "") == (syndication == "") {
		writeErrorResponse(w, "Need 'source' and exactly one of 'original' or 'syndication'", http.StatusBadRequest)
		return
	}

	res := dto.SyndicationLookup{SourceKey: sourceKey}
	var err error
	if original != "" {
		res.Url = original
		res.Matches, res.Known, err = hg.matcher.SyndicationsFor(sourceKey, original)
	} else {
		res.Url = syndication
		res.Matches, res.Known, err = hg.matcher.OriginalsFor(sourceKey, syndication)
	}
	if err != nil {
		writeLogicError(hg.logger, w, "Looking up syndication", err)
		return
	}
	writeJsonResponse(hg.logger, w, &res)
}

func (hg *apiHandlerGroup) getCanonicalize(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartApiRequestIn("canonicalize")
	defer obs.Finish()

	query := r.URL.Query()
	rawUrl := query.Get("url")
	if rawUrl == "" {
		writeErrorResponse(w, "Missing 'url' param", http.StatusBadRequest)
		return
	}
	canon, err := hg.canonicalize.Canonicalize(r.Context(), query.Get("source"), rawUrl)
	if logic.IsTransient(err) || logic.IsDisableSource(err) {
		writeLogicError(hg.logger, w, "Canonicalizing", err)
		return
	}
	if err != nil {
		hg.logger.Infof("Cannot canonicalize %s: %v", shared.Snippet(rawUrl, shared.MaxLogSnippetLen), err)
		writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJsonResponse(hg.logger, w, &dto.CanonicalizeResult{Input: rawUrl, Canonical: canon})
}

func (hg *apiHandlerGroup) postRetry(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartApiRequestIn("retry")
	defer obs.Finish()

	var req dto.RecordRef
	if !readJsonBody(hg.logger, w, r, &req) {
		return
	}
	if err := hg.propagator.Retry(r.Context(), req.Kind, req.Key); err != nil {
		writeLogicError(hg.logger, w, "Retrying "+req.Key, err)
		return
	}
	hg.logger.Infof("Retrying %s %s", req.Kind, req.Key)
	writeJsonResponse(hg.logger, w, true)
}

func (hg *apiHandlerGroup) postMarkComplete(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartApiRequestIn("mark-complete")
	defer obs.Finish()

	var req dto.MarkCompleteRequest
	if !readJsonBody(hg.logger, w, r, &req) {
		return
	}
	if err := hg.propagator.MarkComplete(req.Kind, req.Keys); err != nil {
		writeLogicError(hg.logger, w, "Marking complete", err)
		return
	}
	writeJsonResponse(hg.logger, w, true)
}
