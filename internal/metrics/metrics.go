// Package metrics keeps the per-run counters and optionally pushes them to a
// Prometheus Pushgateway when the job finishes.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "newsbot"

// Drop reasons for the Dropped counter.
const (
	DropDuplicate   = "duplicate"
	DropStale       = "stale"
	DropAlreadySent = "already_sent"
	DropQuota       = "quota"
)

// Rewrite outcomes.
const (
	RewriteOK       = "ok"
	RewriteFallback = "fallback"
	RewriteCached   = "cached"
)

type Metrics struct {
	registry *prometheus.Registry

	Collected     *prometheus.CounterVec
	Dropped       *prometheus.CounterVec
	Rewrites      *prometheus.CounterVec
	MessagesSent  *prometheus.CounterVec
	RenderRung    prometheus.Gauge
	MessageLength prometheus.Gauge
	RunDuration   prometheus.Gauge
	LastSuccess   prometheus.Gauge
}

// New registers the collectors on a private registry for one variant.
func New(variant string) *Metrics {
	labels := prometheus.Labels{"variant": variant}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Collected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "items_collected_total",
			Help: "Raw items collected per source.", ConstLabels: labels,
		}, []string{"source"}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "items_dropped_total",
			Help: "Items removed by the pipeline, by reason.", ConstLabels: labels,
		}, []string{"reason"}),
		Rewrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rewrites_total",
			Help: "Rewrite attempts by outcome.", ConstLabels: labels,
		}, []string{"outcome"}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_total",
			Help: "Delivery attempts by status.", ConstLabels: labels,
		}, []string{"status"}),
		RenderRung: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "render_rung",
			Help: "Fallback rung used by the last rendered message.", ConstLabels: labels,
		}),
		MessageLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "message_length",
			Help: "Length of the last rendered message in the configured unit.", ConstLabels: labels,
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "run_duration_seconds",
			Help: "Wall time of the last run.", ConstLabels: labels,
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_success_timestamp_seconds",
			Help: "Unix time of the last successful delivery.", ConstLabels: labels,
		}),
	}
	m.registry.MustRegister(
		m.Collected, m.Dropped, m.Rewrites, m.MessagesSent,
		m.RenderRung, m.MessageLength, m.RunDuration, m.LastSuccess,
	)
	return m
}

func (m *Metrics) AddCollected(source string, n int) {
	m.Collected.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) AddDropped(reason string, n int) {
	if n > 0 {
		m.Dropped.WithLabelValues(reason).Add(float64(n))
	}
}

func (m *Metrics) IncRewrite(outcome string) {
	m.Rewrites.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordRender(rung, length int) {
	m.RenderRung.Set(float64(rung))
	m.MessageLength.Set(float64(length))
}

func (m *Metrics) RecordDelivery(ok bool, at time.Time) {
	if !ok {
		m.MessagesSent.WithLabelValues("failed").Inc()
		return
	}
	m.MessagesSent.WithLabelValues("sent").Inc()
	m.LastSuccess.Set(float64(at.Unix()))
}

func (m *Metrics) RecordRunDuration(d time.Duration) {
	m.RunDuration.Set(d.Seconds())
}

// Registry exposes the collectors, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push sends the current values to a Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
