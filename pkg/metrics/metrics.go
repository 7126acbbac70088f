package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	platformSubsystem = "synthetica_platform"

	jobsSubmittedTotal    = "jobs_submitted_total"
	jobsCancelledTotal    = "jobs_cancelled_total"
	JobStatusCount        = "job_status_count"
	datasetDownloadsTotal = "dataset_downloads_total"

	// Labels
	jobTypeLabel   = "job_type"
	jobStatusLabel = "status"
	formatLabel    = "format"
)

var jobsSubmittedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: platformSubsystem,
		Name:      jobsSubmittedTotal,
		Help:      "number of generation jobs submitted to the pipeline",
	},
	[]string{jobTypeLabel},
)

var jobsCancelledTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: platformSubsystem,
		Name:      jobsCancelledTotal,
		Help:      "number of generation jobs cancelled by users",
	},
	[]string{jobTypeLabel},
)

var jobStatusCountMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: platformSubsystem,
		Name:      JobStatusCount,
		Help:      "metrics to record the number of jobs in each status",
	},
	[]string{jobStatusLabel},
)

var datasetDownloadsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: platformSubsystem,
		Name:      datasetDownloadsTotal,
		Help:      "number of total dataset download urls issued",
	},
	[]string{formatLabel},
)

func IncreaseJobsSubmittedTotalMetric(jobType string) {
	jobsSubmittedTotalMetric.With(prometheus.Labels{jobTypeLabel: jobType}).Inc()
}

func IncreaseJobsCancelledTotalMetric(jobType string) {
	jobsCancelledTotalMetric.With(prometheus.Labels{jobTypeLabel: jobType}).Inc()
}

func UpdateJobStatusCountMetric(status string, count int) {
	jobStatusCountMetric.With(prometheus.Labels{jobStatusLabel: status}).Set(float64(count))
}

func IncreaseDatasetDownloadsTotalMetric(format string) {
	datasetDownloadsTotalMetric.With(prometheus.Labels{formatLabel: format}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsSubmittedTotalMetric)
	prometheus.MustRegister(jobsCancelledTotalMetric)
	prometheus.MustRegister(jobStatusCountMetric)
	prometheus.MustRegister(datasetDownloadsTotalMetric)
}
