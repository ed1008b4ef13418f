package metrics

import "qc-analytics/internal/files"

// filesObserver implements files.Observer using the Prometheus metrics
// declared in this package.
type filesObserver struct{}

// NewFilesObserver creates an observer that records filesystem metrics
// into the Prometheus counters and histograms declared in metrics.go.
func NewFilesObserver() files.Observer {
	return &filesObserver{}
}

func (o *filesObserver) ObserveRetryAttempt(op string) {
	FilesystemRetryAttempts.WithLabelValues(op).Inc()
}

func (o *filesObserver) ObserveRetrySuccess(op string) {
	FilesystemRetrySuccess.WithLabelValues(op).Inc()
}

func (o *filesObserver) ObserveRetryFailure(op string) {
	FilesystemRetryFailures.WithLabelValues(op).Inc()
}

func (o *filesObserver) ObserveRetryDuration(op string, durationSeconds float64) {
	FilesystemRetryDuration.WithLabelValues(op).Observe(durationSeconds)
}

func (o *filesObserver) ObserveStaleError(op string) {
	FilesystemStaleErrors.WithLabelValues(op).Inc()
}

func (o *filesObserver) ObserveCopy(category string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	FilesCopiedTotal.WithLabelValues(category, status).Inc()
}
