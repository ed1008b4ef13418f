package commands

import (
	"fmt"
	"math"
	"strings"
	"time"

	"qc-analytics/internal/database"
)

// ValidationError reports a command argument rejected before it reached the
// store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func requireNonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "must not be empty")
	}
	return nil
}

// qcDateLayouts are the accepted qcDate inputs. The review UI sends
// dd/MM/yyyy HH:mm:ss.
var qcDateLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006",
	database.QCDateFormat,
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// NormalizeQCDate rewrites a QC date into database.QCDateFormat so that
// analytics can order and group it as text. The wall-clock time is kept as
// given; offsets are not converted. An empty date stays empty.
func NormalizeQCDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}

	for _, layout := range qcDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(database.QCDateFormat), nil
		}
	}

	return "", invalid("qcDate", "unrecognized date %q (expected dd/MM/yyyy HH:mm:ss or yyyy-MM-dd HH:mm:ss)", s)
}

func validateSession(p CreateSessionPayload) error {
	if err := requireNonEmpty("qcName", p.QCName); err != nil {
		return err
	}
	return requireNonEmpty("folderPath", p.FolderPath)
}

func validateSessionID(id int64) error {
	if id <= 0 {
		return invalid("sessionId", "must be positive, got %d", id)
	}
	return nil
}

// normalizeRecord validates rec and returns a copy with qcDate normalized.
func normalizeRecord(rec database.QCRecordPayload) (database.QCRecordPayload, error) {
	if err := validateSessionID(rec.SessionID); err != nil {
		return rec, err
	}
	if err := requireNonEmpty("filename", rec.Filename); err != nil {
		return rec, err
	}
	if err := requireNonEmpty("qcName", rec.QCName); err != nil {
		return rec, err
	}

	if s := rec.TimeSpentSeconds; s != nil {
		if math.IsNaN(*s) || math.IsInf(*s, 0) {
			return rec, invalid("timeSpentSeconds", "must be a finite number")
		}
		if *s < 0 {
			return rec, invalid("timeSpentSeconds", "must not be negative, got %v", *s)
		}
	}

	date, err := NormalizeQCDate(rec.QCDate)
	if err != nil {
		return rec, err
	}
	rec.QCDate = date

	return rec, nil
}
