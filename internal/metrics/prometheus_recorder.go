package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	renderDuration prom.Histogram
	lookups        *prom.CounterVec
	cacheResults   *prom.CounterVec
	syncDuration   *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers the docbrowse metrics on the
// given registry (a fresh registry is created when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		renderDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docbrowse",
			Name:      "render_duration_seconds",
			Help:      "Duration of convert plus post-process per page",
			Buckets:   prom.DefBuckets,
		}),
		lookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docbrowse",
			Name:      "lookups_total",
			Help:      "Module lookups by outcome",
		}, []string{"result"}),
		cacheResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docbrowse",
			Name:      "render_cache_total",
			Help:      "Render cache hits and misses",
		}, []string{"result"}),
		syncDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docbrowse",
			Name:      "root_sync_duration_seconds",
			Help:      "Duration of remote documentation root syncs",
			Buckets:   prom.DefBuckets,
		}, []string{"repo", "result"}),
	}
	reg.MustRegister(pr.renderDuration, pr.lookups, pr.cacheResults, pr.syncDuration)
	return pr
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncLookup(result LookupResult) {
	if p == nil || p.lookups == nil {
		return
	}
	p.lookups.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncCache(hit bool) {
	if p == nil || p.cacheResults == nil {
		return
	}
	label := "miss"
	if hit {
		label = "hit"
	}
	p.cacheResults.WithLabelValues(label).Inc()
}

func (p *PrometheusRecorder) ObserveSyncDuration(repo string, d time.Duration, success bool) {
	if p == nil || p.syncDuration == nil {
		return
	}
	result := "failed"
	if success {
		result = "success"
	}
	p.syncDuration.WithLabelValues(repo, result).Observe(d.Seconds())
}
