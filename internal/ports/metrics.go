package ports

// Metric names understood by Observability backends.
const (
	MetricSamplesProcessed = "signalguard_samples_processed_total"
	MetricSamplesSkipped   = "signalguard_samples_skipped_total"
	MetricSignalsMonitored = "signalguard_signals_monitored"
	MetricSignalsFailed    = "signalguard_signals_failed"
	MetricRunDuration      = "signalguard_run_duration_seconds"
	MetricLoadErrors       = "signalguard_load_errors_total"
	MetricLoadDuration     = "signalguard_load_duration_seconds"
)
