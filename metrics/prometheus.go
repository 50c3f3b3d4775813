// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vechain/dpos/log"
)

const namespace = "dpos"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics switches the backend to prometheus. Meters
// resolved before the call stay no-op. Calling it again is a no-op.
func InitializePrometheusMetrics() {
	if _, ok := backend.(*promRegistry); !ok {
		backend = &promRegistry{meters: make(map[string]any)}
	}
}

// promRegistry registers every meter once on the default prometheus registerer.
type promRegistry struct {
	mu     sync.Mutex
	meters map[string]any
}

// register returns the meter known under name, building it on first use.
// A failed registration is logged and the meter is still returned.
func register[T any](r *promRegistry, name string, build func() (prometheus.Collector, T)) T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.meters[name].(T); ok {
		return m
	}
	collector, m := build()
	if err := prometheus.Register(collector); err != nil {
		logger.Warn("unable to register metric", "name", name, "err", err)
	}
	r.meters[name] = m
	return m
}

func toFloats(buckets []int64) []float64 {
	if len(buckets) == 0 {
		return nil
	}
	out := make([]float64, len(buckets))
	for i, b := range buckets {
		out[i] = float64(b)
	}
	return out
}

func (r *promRegistry) handler() http.Handler { return promhttp.Handler() }

func (r *promRegistry) counterVec(name string, labels []string) CountVecMeter {
	return register(r, name, func() (prometheus.Collector, CountVecMeter) {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		return c, promCounterVec{c}
	})
}

func (r *promRegistry) gauge(name string) GaugeMeter {
	return register(r, name, func() (prometheus.Collector, GaugeMeter) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
		return g, promGauge{g}
	})
}

func (r *promRegistry) histogram(name string, buckets []int64) HistogramMeter {
	return register(r, name, func() (prometheus.Collector, HistogramMeter) {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: name, Buckets: toFloats(buckets)})
		return h, promHistogram{h}
	})
}

func (r *promRegistry) histogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return register(r, name, func() (prometheus.Collector, HistogramVecMeter) {
		h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: name, Buckets: toFloats(buckets)}, labels)
		return h, promHistogramVec{h}
	})
}

type promCounterVec struct{ c *prometheus.CounterVec }

func (p promCounterVec) AddWithLabel(v int64, labels map[string]string) {
	p.c.With(labels).Add(float64(v))
}

type promGauge struct{ g prometheus.Gauge }

func (p promGauge) Set(v int64) { p.g.Set(float64(v)) }

type promHistogram struct{ h prometheus.Histogram }

func (p promHistogram) Observe(v int64) { p.h.Observe(float64(v)) }

type promHistogramVec struct{ h *prometheus.HistogramVec }

func (p promHistogramVec) ObserveWithLabels(v int64, labels map[string]string) {
	p.h.With(labels).Observe(float64(v))
}
