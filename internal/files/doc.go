/*
Package files provides the stateless filesystem helpers behind the review
tool's file commands: image listing, text file IO, path parsing, copying and
bulk organization of reviewed images.

Stat, open and directory reads retry on NFS stale file handle errors
(ESTALE) with exponential backoff, since review folders commonly live on
network shares:

	info, err := files.StatWithRetry(path, files.DefaultRetryConfig())

Only ESTALE triggers a retry. All other errors fail immediately.

Organize copies the retouch, retake and wrong lists flat into one output
folder using a bounded worker pool (see internal/workers). A file that
fails to copy is logged and reported in the result without aborting the
run. Copies land through a temporary file and a rename, so two sources with
the same base name never interleave; one of them wins.

Metrics are reported through an Observer installed with SetObserver; the
metrics package provides the Prometheus implementation.
*/
package files
