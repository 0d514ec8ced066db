// Package prometheus exports listener metrics through client_golang.
package prometheus

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-flaghooks/core"
)

// DefaultLabels pins the label set of the metrics the listener and the job
// hook emit. Metrics not listed use the tag keys of their first observation.
var DefaultLabels = map[string][]string{
	"flaghooks.notify.total":       {"category", "method", "status", "status_code"},
	"flaghooks.notify.duration_ms": {"category", "method", "status", "status_code"},
	"flaghooks.job.events.total":   {"phase", "attempt", "job_id"},
	"flaghooks.job.duration_ms":    {"phase", "attempt", "job_id"},
}

var defaultDurationBuckets = prometheus.ExponentialBuckets(5, 2, 12)

type Recorder struct {
	registry *prometheus.Registry
	labels   map[string][]string
	buckets  []float64

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	keys       map[string][]string
}

type Option func(*Recorder)

func WithLabels(metric string, labels ...string) Option {
	return func(r *Recorder) {
		r.labels[metric] = append([]string(nil), labels...)
	}
}

func WithBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = append([]float64(nil), buckets...)
		}
	}
}

// NewRecorder registers metrics on registry, or on a fresh registry when nil.
func NewRecorder(registry *prometheus.Registry, opts ...Option) *Recorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	r := &Recorder{
		registry:   registry,
		labels:     map[string][]string{},
		buckets:    defaultDurationBuckets,
		counters:   map[string]*prometheus.CounterVec{},
		histograms: map[string]*prometheus.HistogramVec{},
		keys:       map[string][]string{},
	}
	for name, labels := range DefaultLabels {
		r.labels[name] = labels
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value < 0 {
		return
	}
	counter, keys := r.counter(name, tags)
	if counter == nil {
		return
	}
	counter.WithLabelValues(labelValues(keys, tags)...).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	histogram, keys := r.histogram(name, tags)
	if histogram == nil {
		return
	}
	histogram.WithLabelValues(labelValues(keys, tags)...).Observe(value)
}

func (r *Recorder) counter(name string, tags map[string]string) (*prometheus.CounterVec, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if counter, ok := r.counters[name]; ok {
		return counter, r.keys[name]
	}
	keys := r.labelKeys(name, tags)
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricName(name),
		Help: "Counter " + name,
	}, keys)
	if err := r.registry.Register(counter); err != nil {
		return nil, nil
	}
	r.counters[name] = counter
	r.keys[name] = keys
	return counter, keys
}

func (r *Recorder) histogram(name string, tags map[string]string) (*prometheus.HistogramVec, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if histogram, ok := r.histograms[name]; ok {
		return histogram, r.keys[name]
	}
	keys := r.labelKeys(name, tags)
	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricName(name),
		Help:    "Histogram " + name,
		Buckets: r.buckets,
	}, keys)
	if err := r.registry.Register(histogram); err != nil {
		return nil, nil
	}
	r.histograms[name] = histogram
	r.keys[name] = keys
	return histogram, keys
}

func (r *Recorder) labelKeys(name string, tags map[string]string) []string {
	if labels, ok := r.labels[name]; ok {
		return labels
	}
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, MetricName(key))
	}
	sort.Strings(keys)
	return keys
}

// labelValues orders tag values by keys. Missing tags become "" and tags
// outside the label set are dropped.
func labelValues(keys []string, tags map[string]string) []string {
	normalized := make(map[string]string, len(tags))
	for key, value := range tags {
		normalized[MetricName(key)] = value
	}
	values := make([]string, len(keys))
	for i, key := range keys {
		values[i] = normalized[key]
	}
	return values
}

// MetricName converts dotted metric names into Prometheus identifiers.
func MetricName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

var _ core.MetricsRecorder = (*Recorder)(nil)
