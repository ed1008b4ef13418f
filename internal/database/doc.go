// Package database provides SQLite persistence and analytics for QC review
// sessions.
//
// It stores:
//   - QC sessions, one per reviewer sitting over a folder of images
//   - QC records, one per (session, filename), replaced in full on re-save
//   - Application settings as key/value pairs
//
// Analytics only consider active measurements, records whose
// time_spent_seconds is present and at most ActiveTimeThresholdSeconds.
//
// The database uses WAL mode and enforces foreign keys. InitDatabase is
// idempotent and creates or migrates the schema in place.
package database
