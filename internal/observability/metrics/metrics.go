package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "airhealth_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	submissionRequests *prometheus.CounterVec
	submissionErrors   *prometheus.CounterVec
	submissionLatency  *prometheus.HistogramVec

	assessmentsByLabel *prometheus.CounterVec

	alertsEmitted *prometheus.CounterVec
	alertNotify   *prometheus.CounterVec

	aqiRefreshTotal   *prometheus.CounterVec
	aqiRefreshLatency *prometheus.HistogramVec
	aqiCacheLookups   *prometheus.CounterVec

	historyExportTotal   *prometheus.CounterVec
	historyExportLatency *prometheus.HistogramVec

	adminDeleteTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		submissionRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "submissions_total",
				Help: "Total vitals submissions by result",
			},
			[]string{"result"},
		)
		submissionErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "submission_errors_total",
				Help: "Total vitals submission errors by reason",
			},
			[]string{"reason"},
		)
		submissionLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "submission_latency_seconds",
				Help:    "Vitals submission latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		assessmentsByLabel = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "assessments_total",
				Help: "Total risk assessments by label",
			},
			[]string{"label"},
		)

		alertsEmitted = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_emitted_total",
				Help: "Total alerts emitted by severity",
			},
			[]string{"severity"},
		)
		alertNotify = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_notify_total",
				Help: "Total alert channel deliveries by result",
			},
			[]string{"result"},
		)

		aqiRefreshTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "aqi_refresh_total",
				Help: "Total AQI provider refreshes by result",
			},
			[]string{"result"},
		)
		aqiRefreshLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "aqi_refresh_latency_seconds",
				Help:    "AQI provider refresh latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		aqiCacheLookups = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "aqi_cache_lookups_total",
				Help: "Latest-AQI cache lookups by outcome",
			},
			[]string{"outcome"},
		)

		historyExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "history_export_total",
				Help: "Total history export operations by format and result",
			},
			[]string{"format", "result"},
		)
		historyExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "history_export_latency_seconds",
				Help:    "History export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		adminDeleteTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "admin_user_deletes_total",
				Help: "Total admin user deletions by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			submissionRequests,
			submissionErrors,
			submissionLatency,
			assessmentsByLabel,
			alertsEmitted,
			alertNotify,
			aqiRefreshTotal,
			aqiRefreshLatency,
			aqiCacheLookups,
			historyExportTotal,
			historyExportLatency,
			adminDeleteTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveSubmission records vitals submission duration and result.
func ObserveSubmission(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if submissionRequests != nil {
		submissionRequests.WithLabelValues(result).Inc()
	}
	if submissionLatency != nil {
		submissionLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncSubmissionError increments submission error counter.
func IncSubmissionError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if submissionErrors != nil {
		submissionErrors.WithLabelValues(reason).Inc()
	}
}

// IncAssessment increments the assessment counter for a risk label.
func IncAssessment(label string) {
	if label == "" {
		label = "unknown"
	}
	if assessmentsByLabel != nil {
		assessmentsByLabel.WithLabelValues(label).Inc()
	}
}

// IncAlertEmitted increments the alert counter for a severity.
func IncAlertEmitted(severity string) {
	if severity == "" {
		severity = "unknown"
	}
	if alertsEmitted != nil {
		alertsEmitted.WithLabelValues(severity).Inc()
	}
}

// IncAlertNotify increments the channel delivery counter.
func IncAlertNotify(result string) {
	if result == "" {
		result = resultSuccess
	}
	if alertNotify != nil {
		alertNotify.WithLabelValues(result).Inc()
	}
}

// ObserveAQIRefresh records provider refresh latency and result.
func ObserveAQIRefresh(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if aqiRefreshTotal != nil {
		aqiRefreshTotal.WithLabelValues(result).Inc()
	}
	if aqiRefreshLatency != nil {
		aqiRefreshLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncAQICacheLookup increments the latest-AQI cache counter; outcome is
// "hit", "miss" or "error".
func IncAQICacheLookup(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if aqiCacheLookups != nil {
		aqiCacheLookups.WithLabelValues(outcome).Inc()
	}
}

// ObserveHistoryExport records export latency and result.
func ObserveHistoryExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if historyExportTotal != nil {
		historyExportTotal.WithLabelValues(format, result).Inc()
	}
	if historyExportLatency != nil {
		historyExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncAdminDelete increments the admin user-deletion counter.
func IncAdminDelete(result string) {
	if result == "" {
		result = resultSuccess
	}
	if adminDeleteTotal != nil {
		adminDeleteTotal.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)
