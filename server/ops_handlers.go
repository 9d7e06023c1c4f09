package server

import (
	"crypto/subtle"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"silo_bridge/dal"
	"silo_bridge/dto"
	"silo_bridge/shared"
	"strings"
	"time"
)

const (
	healthPath       = "/healthz"
	healthScanLimit  = 100
	bearerPrefix     = "Bearer "
	healthStatusOk   = "ok"
	healthStatusSick = "degraded"
)

// opsHandlerGroup serves the endpoints operators and scrapers hit: Prometheus
// metrics behind a bearer token, and an open health check.
type opsHandlerGroup struct {
	cfg     *shared.Config
	logger  shared.ILogger
	repo    dal.IRepo
	scraper http.Handler
}

func NewOpsHandlerGroup(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
) IHandlerGroup {
	return &opsHandlerGroup{
		cfg:     cfg,
		logger:  logger,
		repo:    repo,
		scraper: promhttp.Handler(),
	}
}

func (hg *opsHandlerGroup) Prefix() string {
	return "/"
}

func (hg *opsHandlerGroup) GroupDefs() []handlerDef {
	return []handlerDef{
		{"GET", "/metrics", hg.scrape},
		{"GET", healthPath, hg.health},
	}
}

func (hg *opsHandlerGroup) AuthMW() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == healthPath || hg.bearerOk(r) {
				next.ServeHTTP(w, r)
				return
			}
			hg.logger.Warnf("Rejected %s %s: bad or missing bearer token", r.Method, r.URL.Path)
			writeErrorResponse(w, badAuthorization, http.StatusUnauthorized)
		})
	}
}

func (hg *opsHandlerGroup) bearerOk(r *http.Request) bool {
	want := hg.cfg.Secrets.MetricsAuth
	got, found := strings.CutPrefix(r.Header.Get(metricsAuthHeader), bearerPrefix)
	if !found || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (hg *opsHandlerGroup) scrape(w http.ResponseWriter, r *http.Request) {
	hg.logger.Debugf("Metrics scrape from %s", r.RemoteAddr)
	hg.scraper.ServeHTTP(w, r)
}

// health reports the task backlog and how many responses are stuck in error.
// A database failure turns the health check into a 503.
func (hg *opsHandlerGroup) health(w http.ResponseWriter, r *http.Request) {
	_, queued, err := hg.repo.GetTaskQueueItems(0, 0, time.Now())
	if err != nil {
		hg.logger.Errorf("Health check could not read task queue: %v", err)
		writeErrorResponse(w, unavailableStr, http.StatusServiceUnavailable)
		return
	}
	failed, err := hg.repo.GetResponsesByStatus(dal.StatusError, healthScanLimit)
	if err != nil {
		hg.logger.Errorf("Health check could not read responses: %v", err)
		writeErrorResponse(w, unavailableStr, http.StatusServiceUnavailable)
		return
	}
	report := dto.HealthReport{
		Status:          healthStatusOk,
		QueuedTasks:     queued,
		ResponsesFailed: len(failed),
	}
	if len(failed) >= healthScanLimit {
		report.Status = healthStatusSick
	}
	writeJsonResponse(hg.logger, w, &report)
}
