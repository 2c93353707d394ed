// Package metric provides Prometheus metrics for the aranea agent.
//
// Registry owns a private prometheus.Registry with the Go and process
// collectors, the settings lifecycle counters and the HTTP request
// metrics. Collector reports point-in-time store state at scrape time.
package metric
