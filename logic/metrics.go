package logic

import (
	"github.com/prometheus/client_golang/prometheus"
	"silo_bridge/shared"
	"time"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../test/mocks/mock_metrics.go -package mocks silo_bridge/logic IMetrics
//go:generate mockgen --build_flags=--mod=mod -destination ../test/mocks/mock_request_observer.go -package mocks silo_bridge/logic IRequestObserver

type IMetrics interface {
	StartApiRequestIn(label string) IRequestObserver
	StartDeliveryOut(label string) IRequestObserver
	ServiceStarted()
	Reconciled(result string)
	TaskEnqueued(queue string)
	TaskHandled(queue, result string)
	TaskQueueLength(length int)
	CacheEvicted(cacheName string, count int)
	SyndicationInserted(kind string)
	DeliveryOutcome(outcome string)
}

type IRequestObserver interface {
	Finish()
}

type metrics struct {
	cfg                  *shared.Config
	apiRequestsIn        *prometheus.HistogramVec
	deliveriesOut        *prometheus.HistogramVec
	serviceStarted       prometheus.Counter
	reconciled           *prometheus.CounterVec
	tasksEnqueued        *prometheus.CounterVec
	tasksHandled         *prometheus.CounterVec
	taskQueueLength      prometheus.Gauge
	cacheEvictions       *prometheus.CounterVec
	syndicationsInserted *prometheus.CounterVec
	deliveryOutcomes     *prometheus.CounterVec
}

func NewMetrics(cfg *shared.Config) IMetrics {
	return newMetrics(cfg, prometheus.DefaultRegisterer)
}

func newMetrics(cfg *shared.Config, reg prometheus.Registerer) IMetrics {

	res := metrics{}
	res.cfg = cfg

	res.apiRequestsIn = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "api_requests_in_duration",
		Help: "Duration in seconds of API requests served.",
	}, []string{"label"})
	reg.Register(res.apiRequestsIn)

	res.deliveriesOut = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "delivery_requests_out_duration",
		Help: "Duration in seconds of task hand-offs to the delivery service.",
	}, []string{"label"})
	reg.Register(res.deliveriesOut)

	res.serviceStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "service_started",
		Help: "Service has started up",
	})
	reg.Register(res.serviceStarted)

	res.reconciled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "responses_reconciled",
		Help: "Reconciled responses by result (new, unchanged, changed, merged, failed)",
	}, []string{"result"})
	reg.Register(res.reconciled)

	res.tasksEnqueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tasks_enqueued",
		Help: "Propagation tasks enqueued",
	}, []string{"queue"})
	reg.Register(res.tasksEnqueued)

	res.tasksHandled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tasks_handled",
		Help: "Propagation tasks handed to the deliverer, by result",
	}, []string{"queue", "result"})
	reg.Register(res.tasksHandled)

	res.taskQueueLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "task_queue_length",
		Help: "Items in task queue",
	})
	reg.Register(res.taskQueueLength)

	res.cacheEvictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resolution_cache_evictions",
		Help: "Entries dropped from resolution caches when flushing",
	}, []string{"cache"})
	reg.Register(res.cacheEvictions)

	res.syndicationsInserted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "syndicated_posts_inserted",
		Help: "Syndication rows written, by kind (pair, original_blank, syndication_blank)",
	}, []string{"kind"})
	reg.Register(res.syndicationsInserted)

	res.deliveryOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_outcomes",
		Help: "Per-target delivery outcomes reported back",
	}, []string{"outcome"})
	reg.Register(res.deliveryOutcomes)

	return &res
}

type requestObserver struct {
	label string
	start time.Time
	hgvec *prometheus.HistogramVec
}

func (ro *requestObserver) Finish() {
	now := time.Now()
	elapsed := float64(now.UnixMilli()-ro.start.UnixMilli()) / 1000.0
	ro.hgvec.WithLabelValues(ro.label).Observe(elapsed)
}

func (m *metrics) StartApiRequestIn(label string) IRequestObserver {
	return &requestObserver{label, time.Now(), m.apiRequestsIn}
}

func (m *metrics) StartDeliveryOut(label string) IRequestObserver {
	return &requestObserver{label, time.Now(), m.deliveriesOut}
}

func (m *metrics) ServiceStarted() {
	m.serviceStarted.Add(1)
}

func (m *metrics) Reconciled(result string) {
	m.reconciled.WithLabelValues(result).Add(1)
}

func (m *metrics) TaskEnqueued(queue string) {
	m.tasksEnqueued.WithLabelValues(queue).Add(1)
}

func (m *metrics) TaskHandled(queue, result string) {
	m.tasksHandled.WithLabelValues(queue, result).Add(1)
}

func (m *metrics) TaskQueueLength(length int) {
	m.taskQueueLength.Set(float64(length))
}

func (m *metrics) CacheEvicted(cacheName string, count int) {
	m.cacheEvictions.WithLabelValues(cacheName).Add(float64(count))
}

func (m *metrics) SyndicationInserted(kind string) {
	m.syndicationsInserted.WithLabelValues(kind).Add(1)
}

func (m *metrics) DeliveryOutcome(outcome string) {
	m.deliveryOutcomes.WithLabelValues(outcome).Add(1)
}
