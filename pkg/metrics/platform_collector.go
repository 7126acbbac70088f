package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/synthetica/platform/internal/store"
)

type platformStatsCollector struct {
	store          store.Store
	totalCustomers *prometheus.Desc
	totalProjects  *prometheus.Desc
	totalDatasets  *prometheus.Desc
	jobsByStatus   *prometheus.Desc
}

func newPlatformStatsCollector(s store.Store) prometheus.Collector {
	fqName := func(name string) string {
		return fmt.Sprintf("%s_%s", platformSubsystem, name)
	}

	return &platformStatsCollector{
		store: s,
		totalCustomers: prometheus.NewDesc(
			fqName("customers_total"),
			"Total number of customers.",
			nil,
			prometheus.Labels{},
		),
		totalProjects: prometheus.NewDesc(
			fqName("projects_total"),
			"Total number of projects.",
			nil,
			prometheus.Labels{},
		),
		totalDatasets: prometheus.NewDesc(
			fqName("datasets_total"),
			"Total number of generated datasets.",
			nil,
			prometheus.Labels{},
		),
		jobsByStatus: prometheus.NewDesc(
			fqName("jobs_by_status_total"),
			"Total jobs by status.",
			[]string{"status"},
			prometheus.Labels{},
		),
	}
}

func (c *platformStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalCustomers
	ch <- c.totalProjects
	ch <- c.totalDatasets
	ch <- c.jobsByStatus
}

// Collect implements Collector.
func (c *platformStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.store.Statistics(context.TODO())
	if err != nil {
		zap.S().Named("metrics").Errorw("failed to compute platform statistics", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.totalCustomers, prometheus.GaugeValue, float64(stats.Customers))
	ch <- prometheus.MustNewConstMetric(c.totalProjects, prometheus.GaugeValue, float64(stats.Projects))
	ch <- prometheus.MustNewConstMetric(c.totalDatasets, prometheus.GaugeValue, float64(stats.Datasets))

	for status, count := range stats.JobsByStatus {
		ch <- prometheus.MustNewConstMetric(c.jobsByStatus, prometheus.GaugeValue, float64(count), status)
	}
}
