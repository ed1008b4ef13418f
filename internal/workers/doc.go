/*
Package workers sizes worker pools for bulk file operations.

Worker counts derive from runtime.GOMAXPROCS, which Go sets from the
container CPU limit, rather than runtime.NumCPU, which reports host CPUs.

	// Copy pool: 2 workers per CPU, at most 16
	n := workers.ForIO(16)

Operators can pin the count with QC_COPY_WORKERS:

	QC_COPY_WORKERS=4 qc-analytics

An override above the caller's limit is clamped to the limit. Invalid or
non-positive values are ignored.
*/
package workers
