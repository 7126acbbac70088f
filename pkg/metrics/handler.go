package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/synthetica/platform/internal/store"
)

// PrometheusMetricsHandler serves the default prometheus registry.
type PrometheusMetricsHandler struct{}

func NewPrometheusMetricsHandler() *PrometheusMetricsHandler {
	return &PrometheusMetricsHandler{}
}

func (h *PrometheusMetricsHandler) Handler() http.Handler {
	return promhttp.Handler()
}

// RegisterPlatformStatsCollector exposes totals computed from the store
// (customers, projects, datasets, jobs by status) on the default registry.
func RegisterPlatformStatsCollector(s store.Store) {
	prometheus.MustRegister(newPlatformStatsCollector(s))
}
