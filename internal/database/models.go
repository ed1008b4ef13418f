package database

import "time"

// TimeFormat is the fixed-width UTC layout used for every timestamp the
// service writes. Fixed width keeps lexicographic and chronological order
// identical.
const TimeFormat = "2006-01-02T15:04:05.000000000Z"

// QCDateFormat is the layout stored in qc_records.qc_date. Analytics order
// and group by this column as text.
const QCDateFormat = "2006-01-02 15:04:05"

// ActiveTimeThresholdSeconds is the upper bound (inclusive) on
// time_spent_seconds for a record to count as an active QC measurement.
const ActiveTimeThresholdSeconds = 8.0

// Decision values counted by the analytics queries.
const (
	DecisionRight = "Right"
	DecisionWrong = "Wrong"
)

// FormatTime renders t in TimeFormat.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// SessionSummary is a row of qc_sessions as shown in the history view.
type SessionSummary struct {
	ID           int64   `json:"id"`
	QCName       string  `json:"qcName"`
	FolderPath   string  `json:"folderPath"`
	SessionStart string  `json:"sessionStart"`
	SessionEnd   *string `json:"sessionEnd"`
	CreatedAt    string  `json:"createdAt"`
}

// QCRecordPayload is the full set of fields written by SaveQCRecord.
// Nil optional fields are stored as NULL, replacing any previous value.
type QCRecordPayload struct {
	SessionID           int64    `json:"sessionId"`
	WeekNumber          string   `json:"weekNumber"`
	QCDate              string   `json:"qcDate"`
	ReceivedDate        string   `json:"receivedDate"`
	Namespace           string   `json:"namespace"`
	Filename            string   `json:"filename"`
	QCName              string   `json:"qcName"`
	QCDecision          string   `json:"qcDecision"`
	QCObservations      string   `json:"qcObservations"`
	RetouchQuality      string   `json:"retouchQuality"`
	RetouchObservations string   `json:"retouchObservations"`
	NextAction          string   `json:"nextAction"`
	ImageStartTime      *string  `json:"imageStartTime"`
	ImageEndTime        *string  `json:"imageEndTime"`
	TimeSpentSeconds    *float64 `json:"timeSpentSeconds"`
	CustomFieldsJSON    *string  `json:"customFieldsJson"`
}

// QCRecord is a stored row of qc_records.
type QCRecord struct {
	ID int64 `json:"id"`
	QCRecordPayload
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// AnalyticsSummary aggregates active measurements for one reviewer.
type AnalyticsSummary struct {
	TotalImages        int64    `json:"totalImages"`
	TotalRight         int64    `json:"totalRight"`
	TotalWrong         int64    `json:"totalWrong"`
	AverageTimeSeconds *float64 `json:"averageTimeSeconds"`
}

// AnalyticsRecord is the per-record projection used to build charts.
type AnalyticsRecord struct {
	QCDate           *string  `json:"qcDate"`
	Filename         string   `json:"filename"`
	QCDecision       *string  `json:"qcDecision"`
	NextAction       *string  `json:"nextAction"`
	TimeSpentSeconds *float64 `json:"timeSpentSeconds"`
	QCObservations   *string  `json:"qcObservations"`
}

// DailyStat aggregates active measurements for one calendar day.
type DailyStat struct {
	Day                string   `json:"day"`
	TotalImages        int64    `json:"totalImages"`
	TotalRight         int64    `json:"totalRight"`
	TotalWrong         int64    `json:"totalWrong"`
	RetouchOrBlunder   int64    `json:"retouchOrBlunder"`
	AverageTimeSeconds *float64 `json:"averageTimeSeconds"`
}

// ActionCount is one slice of the next-action distribution.
type ActionCount struct {
	NextAction string `json:"nextAction"`
	Count      int64  `json:"count"`
}

// AppSetting is a stored key/value UI preference.
type AppSetting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Stats holds table counts for the metrics collector.
type Stats struct {
	TotalSessions int
	OpenSessions  int
	TotalRecords  int
	ActiveRecords int
	TotalSettings int
}
