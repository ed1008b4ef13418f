// Command qcctl inspects and maintains the QC analytics database from a
// shell.
//
// Usage:
//
//	qcctl [--json] <command> [arguments]
//
// Commands:
//
//	path                      Print the database file location.
//	init                      Create or migrate the schema.
//	history <qcName>          List a reviewer's sessions, newest first.
//	summary <qcName>          Totals and average time of active measurements.
//	records <qcName>          Active measurements in date order.
//	daily <qcName>            Active measurements grouped by day.
//	actions <qcName>          Active measurements counted by next action.
//	record <id> <filename>    One stored QC record.
//	settings                  Stored application settings.
//	end-session <id>          Mark a session as ended.
//
// Output is an aligned table when stdout is a terminal and JSON otherwise.
//
// Environment:
//
//	QC_DATABASE_PATH - Path to the database file (default: per-user data directory)
package main
