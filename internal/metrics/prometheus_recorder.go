package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docsync"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	stageResults  *prom.CounterVec
	runOutcome    *prom.CounterVec
	pages         *prom.CounterVec
	attachments   *prom.CounterVec
	links         *prom.CounterVec
}

// NewPrometheusRecorder constructs the sync metrics and registers them on reg.
// A nil registry gets a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual sync stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total sync run duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Sync runs by final status",
		}, []string{"outcome"}),
		pages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Pages written to the wiki by action",
		}, []string{"action"}),
		attachments: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "attachments_total",
			Help:      "Local assets by upload result",
		}, []string{"result"}),
		links: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "links_total",
			Help:      "Relative links by resolution result",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome, pr.pages, pr.attachments, pr.links)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome OutcomeLabel) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPage(action PageAction) {
	if p == nil || p.pages == nil {
		return
	}
	p.pages.WithLabelValues(string(action)).Inc()
}

func (p *PrometheusRecorder) IncAttachmentUploaded() {
	if p == nil || p.attachments == nil {
		return
	}
	p.attachments.WithLabelValues("uploaded").Inc()
}

func (p *PrometheusRecorder) IncAttachmentSkipped() {
	if p == nil || p.attachments == nil {
		return
	}
	p.attachments.WithLabelValues("skipped").Inc()
}

func (p *PrometheusRecorder) IncLinkResolved() {
	if p == nil || p.links == nil {
		return
	}
	p.links.WithLabelValues("resolved").Inc()
}

func (p *PrometheusRecorder) IncLinkDangling() {
	if p == nil || p.links == nil {
		return
	}
	p.links.WithLabelValues("dangling").Inc()
}
