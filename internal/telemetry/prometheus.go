package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes the engine snapshot to prometheus. Counters are read
// from the engine at scrape time, so there is nothing to keep in sync.
type Collector struct {
	src EngineStats

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
	items     *prometheus.Desc
	sizeBytes *prometheus.Desc
	hitRate   *prometheus.Desc
}

func NewCollector(namespace string, src EngineStats) *Collector {
	return &Collector{
		src: src,
		hits: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "hits_total"),
			"Successful retrievals.", nil, nil),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "misses_total"),
			"Retrievals of absent or expired keys.", nil, nil),
		evictions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "evictions_total"),
			"Items removed by capacity pressure.", nil, nil),
		items: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "items"),
			"Items currently cached.", nil, nil),
		sizeBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "size_bytes"),
			"Aggregate stored payload size.", nil, nil),
		hitRate: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "hit_rate"),
			"hits / (hits + misses), 0 before any access.", nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.items
	ch <- c.sizeBytes
	ch <- c.hitRate
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.src.Metrics()
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(m.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(m.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(m.Evictions))
	ch <- prometheus.MustNewConstMetric(c.items, prometheus.GaugeValue, float64(m.Items))
	ch <- prometheus.MustNewConstMetric(c.sizeBytes, prometheus.GaugeValue, float64(m.SizeBytes))
	ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue, m.HitRate)
}
