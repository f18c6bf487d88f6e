package db

import (
	"fmt"
)

// StageRun represents a row in the stage_runs table.
type StageRun struct {
	ID         int
	RunID      string
	Stage      string
	Outcome    string
	Attempts   int
	DurationMs int64
	Error      string
	Timestamp  string
}

// RunEvent represents a row in the run_events table.
type RunEvent struct {
	ID        int
	RunID     string
	Event     string
	Stage     string
	Detail    string
	Timestamp string
}

// InsertRun records a new run.
func (d *DB) InsertRun(runID, workflow, query, status string) error {
	_, err := d.conn.Exec(
		`INSERT INTO runs (run_id, workflow, query, status) VALUES (?, ?, ?, ?)`,
		runID, workflow, query, status,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRunStatus sets a run's terminal status.
func (d *DB) UpdateRunStatus(runID, status string) error {
	_, err := d.conn.Exec(
		`UPDATE runs SET status = ?, updated_at = datetime('now') WHERE run_id = ?`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return nil
}

// LogStageRun inserts a stage trace row.
func (d *DB) LogStageRun(runID, stage, outcome string, attempts int, durationMs int64, errDetail string) error {
	_, err := d.conn.Exec(
		`INSERT INTO stage_runs (run_id, stage, outcome, attempts, duration_ms, error) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stage, outcome, attempts, durationMs, errDetail,
	)
	if err != nil {
		return fmt.Errorf("log stage run: %w", err)
	}
	return nil
}

// LogRunEvent inserts a run-level event.
func (d *DB) LogRunEvent(runID, event, stage, detail string) error {
	_, err := d.conn.Exec(
		`INSERT INTO run_events (run_id, event, stage, detail) VALUES (?, ?, ?, ?)`,
		runID, event, stage, detail,
	)
	if err != nil {
		return fmt.Errorf("log run event: %w", err)
	}
	return nil
}

// GetStageRuns returns the stage trace for a run in execution order.
func (d *DB) GetStageRuns(runID string) ([]StageRun, error) {
	rows, err := d.conn.Query(
		`SELECT id, run_id, stage, outcome, attempts, duration_ms, error, timestamp
		 FROM stage_runs WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stage runs: %w", err)
	}
	defer rows.Close()

	var out []StageRun
	for rows.Next() {
		var sr StageRun
		if err := rows.Scan(&sr.ID, &sr.RunID, &sr.Stage, &sr.Outcome, &sr.Attempts, &sr.DurationMs, &sr.Error, &sr.Timestamp); err != nil {
			return nil, fmt.Errorf("scan stage run: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// GetRunEvents returns the events for a run, newest first.
func (d *DB) GetRunEvents(runID string, limit int) ([]RunEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.conn.Query(
		`SELECT id, run_id, event, COALESCE(stage, ''), COALESCE(detail, ''), timestamp
		 FROM run_events WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query run events: %w", err)
	}
	defer rows.Close()

	var out []RunEvent
	for rows.Next() {
		var ev RunEvent
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Event, &ev.Stage, &ev.Detail, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// StageStats aggregates outcomes per stage across all runs; the runs stats
// command uses it to sanity-check retry and timeout calibration.
type StageStats struct {
	Stage         string
	Runs          int
	OkCount       int
	FatalCount    int
	AvgDurationMs float64
	AvgAttempts   float64
}

// GetStageStats returns per-stage aggregates across all recorded runs.
func (d *DB) GetStageStats() ([]StageStats, error) {
	rows, err := d.conn.Query(
		`SELECT stage,
		        COUNT(*),
		        SUM(CASE WHEN outcome = 'ok' THEN 1 ELSE 0 END),
		        SUM(CASE WHEN outcome = 'fatal' THEN 1 ELSE 0 END),
		        AVG(duration_ms),
		        AVG(attempts)
		 FROM stage_runs GROUP BY stage ORDER BY stage`,
	)
	if err != nil {
		return nil, fmt.Errorf("query stage stats: %w", err)
	}
	defer rows.Close()

	var out []StageStats
	for rows.Next() {
		var st StageStats
		if err := rows.Scan(&st.Stage, &st.Runs, &st.OkCount, &st.FatalCount, &st.AvgDurationMs, &st.AvgAttempts); err != nil {
			return nil, fmt.Errorf("scan stage stats: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
