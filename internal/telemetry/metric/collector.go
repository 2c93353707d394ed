package metric

import "github.com/prometheus/client_golang/prometheus"

// StoreStats is a snapshot of the settings store and its backend.
type StoreStats struct {
	Initialized          bool
	Endpoints            int
	CheckIntervalSeconds float64
	UsedBytes            int64
	Files                int
}

// StatsSource supplies StoreStats at scrape time.
type StatsSource interface {
	StoreStats() StoreStats
}

// Collector turns a StatsSource into gauges.
type Collector struct {
	source StatsSource

	initialized   *prometheus.Desc
	endpoints     *prometheus.Desc
	checkInterval *prometheus.Desc
	usedBytes     *prometheus.Desc
	files         *prometheus.Desc
}

// NewCollector creates a collector reading from source.
func NewCollector(source StatsSource) *Collector {
	desc := func(subsystem, name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, nil, nil)
	}
	return &Collector{
		source:        source,
		initialized:   desc("settings", "initialized", "1 once the settings store has been opened"),
		endpoints:     desc("settings", "endpoints", "Number of configured endpoints"),
		checkInterval: desc("settings", "check_interval_seconds", "Configured polling interval"),
		usedBytes:     desc("storage", "used_bytes", "Bytes occupied by the storage backend"),
		files:         desc("storage", "files", "Files held by the storage backend"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.initialized
	ch <- c.endpoints
	ch <- c.checkInterval
	ch <- c.usedBytes
	ch <- c.files
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.StoreStats()

	initialized := 0.0
	if s.Initialized {
		initialized = 1
	}
	ch <- prometheus.MustNewConstMetric(c.initialized, prometheus.GaugeValue, initialized)
	ch <- prometheus.MustNewConstMetric(c.endpoints, prometheus.GaugeValue, float64(s.Endpoints))
	ch <- prometheus.MustNewConstMetric(c.checkInterval, prometheus.GaugeValue, s.CheckIntervalSeconds)
	ch <- prometheus.MustNewConstMetric(c.usedBytes, prometheus.GaugeValue, float64(s.UsedBytes))
	ch <- prometheus.MustNewConstMetric(c.files, prometheus.GaugeValue, float64(s.Files))
}
