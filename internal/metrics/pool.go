package metrics

import "github.com/prometheus/client_golang/prometheus"

// PoolStats is a snapshot of database connection pool usage.
type PoolStats struct {
	Acquired int32
	Idle     int32
	Total    int32
	Max      int32
}

// NewPoolCollectors returns gauges that read stats on every scrape.
func NewPoolCollectors(stats func() PoolStats) []prometheus.Collector {
	gauge := func(name, help string, pick func(PoolStats) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "db_pool",
				Name:      name,
				Help:      help,
			},
			func() float64 { return float64(pick(stats())) },
		)
	}
	return []prometheus.Collector{
		gauge("acquired_conns", "Connections currently in use", func(s PoolStats) int32 { return s.Acquired }),
		gauge("idle_conns", "Idle connections", func(s PoolStats) int32 { return s.Idle }),
		gauge("total_conns", "Open connections", func(s PoolStats) int32 { return s.Total }),
		gauge("max_conns", "Configured pool ceiling", func(s PoolStats) int32 { return s.Max }),
	}
}

var poolMetricsRegistered bool

// RegisterPoolMetrics registers pool gauges backed by stats. Later calls are no-ops.
func RegisterPoolMetrics(stats func() PoolStats) {
	if poolMetricsRegistered {
		return
	}
	poolMetricsRegistered = true
	prometheus.MustRegister(NewPoolCollectors(stats)...)
}
