// Package logging provides a simple leveled logging interface for the QC
// analytics service and the qcctl tool.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The level comes from DEBUG or LOG_LEVEL in the environment and can be
// replaced at startup with SetLevel.
package logging
