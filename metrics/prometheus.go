package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exports metrics through client_golang.
type Prometheus struct {
	layerLatency   *prometheus.HistogramVec
	clusterCount   *prometheus.GaugeVec
	featureLatency *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	recursions     *prometheus.CounterVec
}

var _ Collector = (*Prometheus)(nil)

// NewPrometheus creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default handler.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		layerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lja_layer_clustering_seconds",
			Help:    "Latency of clustering one layer",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		clusterCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lja_layer_clusters",
			Help: "Selected cluster count per layer",
		}, []string{"layer"}),
		featureLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lja_feature_construction_seconds",
			Help:    "Latency of top-level feature constructions",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lja_feature_cache_lookups_total",
			Help: "Feature cache lookups",
		}, []string{"result"}),
		recursions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lja_feature_recursions_total",
			Help: "Recursive construction steps per layer",
		}, []string{"layer"}),
	}

	for _, c := range []prometheus.Collector{p.layerLatency, p.clusterCount, p.featureLatency, p.cacheLookups, p.recursions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordLayerClustered implements Collector.
func (p *Prometheus) RecordLayerClustered(layer, count int, d time.Duration, err error) {
	p.layerLatency.WithLabelValues(status(err)).Observe(d.Seconds())
	if err == nil {
		p.clusterCount.WithLabelValues(strconv.Itoa(layer)).Set(float64(count))
	}
}

// RecordFeature implements Collector.
func (p *Prometheus) RecordFeature(_ int, d time.Duration, err error) {
	p.featureLatency.WithLabelValues(status(err)).Observe(d.Seconds())
}

// RecordCacheLookup implements Collector.
func (p *Prometheus) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cacheLookups.WithLabelValues(result).Inc()
}

// RecordRecursion implements Collector.
func (p *Prometheus) RecordRecursion(layer int) {
	p.recursions.WithLabelValues(strconv.Itoa(layer)).Inc()
}
