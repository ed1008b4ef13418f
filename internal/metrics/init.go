package metrics

// Command names pre-populated by InitializeMetrics.
var knownCommands = []string{
	"init_database", "create_session", "end_session", "save_qc_record",
	"get_session_history", "get_analytics_data", "get_analytics_records",
	"get_daily_breakdown", "get_next_action_distribution",
	"save_app_setting", "load_app_settings", "get_database_path",
	"get_image_files", "read_text_file", "write_text_file", "file_exists",
	"create_directory", "copy_file", "get_parent_directory", "get_filename",
	"organize_files",
}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	for _, op := range []string{"stat", "open", "readdir"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
		FilesystemRetryDuration.WithLabelValues(op)
	}

	for _, category := range []string{"retouch", "retake", "wrong"} {
		FilesCopiedTotal.WithLabelValues(category, "success")
		FilesCopiedTotal.WithLabelValues(category, "error")
	}

	for _, cmd := range knownCommands {
		CommandsTotal.WithLabelValues(cmd, "success")
		CommandsTotal.WithLabelValues(cmd, "invalid")
		CommandsTotal.WithLabelValues(cmd, "error")
		CommandDuration.WithLabelValues(cmd)
	}

	for _, op := range []string{"init_database", "create_session", "end_session",
		"save_qc_record", "get_session_history", "get_analytics_data",
		"get_analytics_records", "get_daily_breakdown", "get_next_action_distribution",
		"save_app_setting", "load_app_settings", "calculate_stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, t := range []string{"session_created", "session_ended", "record_saved", "setting_saved"} {
		EventsPublishedTotal.WithLabelValues(t)
	}
}
