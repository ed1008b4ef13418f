package database

import (
	"context"
	"database/sql"
	"strconv"
	"time"
)

// activeFilter selects active measurements: a recorded time no longer than
// ActiveTimeThresholdSeconds. Longer times mean the reviewer stepped away.
var activeFilter = "time_spent_seconds IS NOT NULL AND time_spent_seconds <= " +
	strconv.FormatFloat(ActiveTimeThresholdSeconds, 'f', -1, 64)

// GetAnalyticsData summarizes the active measurements of qcName. The
// average is nil when no record qualifies.
func (d *Database) GetAnalyticsData(ctx context.Context, qcName string) (summary AnalyticsSummary, err error) {
	start := time.Now()
	defer func() { recordQuery("get_analytics_data", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stmt, err := d.db.PrepareContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN qc_decision = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN qc_decision = ? THEN 1 ELSE 0 END), 0),
			AVG(time_spent_seconds)
		FROM qc_records
		WHERE qc_name = ? AND `+activeFilter)
	if err != nil {
		return summary, newError(ErrQueryPrepare, "Failed to prepare analytics query", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, DecisionRight, DecisionWrong, qcName)
	if err != nil {
		return summary, execError("Failed to query analytics", err)
	}
	defer closeRows(rows, &err)

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return summary, newError(ErrQueryExec, "Failed to query analytics", err)
		}
		return summary, nil
	}

	var avg sql.NullFloat64
	if err := rows.Scan(&summary.TotalImages, &summary.TotalRight, &summary.TotalWrong, &avg); err != nil {
		return AnalyticsSummary{}, newError(ErrRowMapping, "Failed to read analytics row", err)
	}
	if avg.Valid {
		summary.AverageTimeSeconds = &avg.Float64
	}

	return summary, nil
}

// GetAnalyticsRecords returns the active measurements of qcName in qc_date
// order, ties broken by insertion order.
func (d *Database) GetAnalyticsRecords(ctx context.Context, qcName string) (records []AnalyticsRecord, err error) {
	start := time.Now()
	defer func() { recordQuery("get_analytics_records", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stmt, err := d.db.PrepareContext(ctx, `
		SELECT qc_date, filename, qc_decision, next_action, time_spent_seconds, qc_observations
		FROM qc_records
		WHERE qc_name = ? AND `+activeFilter+`
		ORDER BY qc_date ASC, id ASC
	`)
	if err != nil {
		return nil, newError(ErrQueryPrepare, "Failed to prepare analytics records query", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, qcName)
	if err != nil {
		return nil, execError("Failed to query analytics records", err)
	}
	defer closeRows(rows, &err)

	records = []AnalyticsRecord{}
	for rows.Next() {
		var r AnalyticsRecord
		if err := rows.Scan(&r.QCDate, &r.Filename, &r.QCDecision, &r.NextAction, &r.TimeSpentSeconds, &r.QCObservations); err != nil {
			return nil, newError(ErrRowMapping, "Failed to read analytics record row", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, newError(ErrQueryExec, "Failed to iterate analytics records", err)
	}

	return records, nil
}

// GetDailyBreakdown groups the active measurements of qcName by calendar
// day, oldest first. Records without a qc_date are skipped.
func (d *Database) GetDailyBreakdown(ctx context.Context, qcName string) (days []DailyStat, err error) {
	start := time.Now()
	defer func() { recordQuery("get_daily_breakdown", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stmt, err := d.db.PrepareContext(ctx, `
		SELECT
			substr(qc_date, 1, 10) AS day,
			COUNT(*),
			SUM(CASE WHEN qc_decision = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN qc_decision = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN next_action IN ('Retouch', 'Blunder') THEN 1 ELSE 0 END),
			AVG(time_spent_seconds)
		FROM qc_records
		WHERE qc_name = ? AND qc_date IS NOT NULL AND qc_date != '' AND `+activeFilter+`
		GROUP BY day
		ORDER BY day ASC
	`)
	if err != nil {
		return nil, newError(ErrQueryPrepare, "Failed to prepare daily breakdown query", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, DecisionRight, DecisionWrong, qcName)
	if err != nil {
		return nil, execError("Failed to query daily breakdown", err)
	}
	defer closeRows(rows, &err)

	days = []DailyStat{}
	for rows.Next() {
		var s DailyStat
		var avg sql.NullFloat64
		if err := rows.Scan(&s.Day, &s.TotalImages, &s.TotalRight, &s.TotalWrong, &s.RetouchOrBlunder, &avg); err != nil {
			return nil, newError(ErrRowMapping, "Failed to read daily breakdown row", err)
		}
		if avg.Valid {
			s.AverageTimeSeconds = &avg.Float64
		}
		days = append(days, s)
	}

	if err := rows.Err(); err != nil {
		return nil, newError(ErrQueryExec, "Failed to iterate daily breakdown", err)
	}

	return days, nil
}

// GetNextActionDistribution counts the active measurements of qcName per
// next action. Missing actions are reported as "None".
func (d *Database) GetNextActionDistribution(ctx context.Context, qcName string) (counts []ActionCount, err error) {
	start := time.Now()
	defer func() { recordQuery("get_next_action_distribution", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stmt, err := d.db.PrepareContext(ctx, `
		SELECT
			CASE WHEN next_action IS NULL OR next_action = '' THEN 'None' ELSE next_action END AS action,
			COUNT(*) AS n
		FROM qc_records
		WHERE qc_name = ? AND `+activeFilter+`
		GROUP BY action
		ORDER BY n DESC, action ASC
	`)
	if err != nil {
		return nil, newError(ErrQueryPrepare, "Failed to prepare next action query", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, qcName)
	if err != nil {
		return nil, execError("Failed to query next action distribution", err)
	}
	defer closeRows(rows, &err)

	counts = []ActionCount{}
	for rows.Next() {
		var c ActionCount
		if err := rows.Scan(&c.NextAction, &c.Count); err != nil {
			return nil, newError(ErrRowMapping, "Failed to read next action row", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, newError(ErrQueryExec, "Failed to iterate next action distribution", err)
	}

	return counts, nil
}
