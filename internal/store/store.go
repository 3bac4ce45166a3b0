// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/seatplay/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			submitted_at TEXT NOT NULL,
			rows INTEGER NOT NULL,
			cols INTEGER NOT NULL,
			min_students INTEGER NOT NULL,
			max_students INTEGER NOT NULL,
			student_step INTEGER NOT NULL,
			repeat_count INTEGER NOT NULL,
			humanities INTEGER NOT NULL,
			science INTEGER NOT NULL,
			engineering INTEGER NOT NULL,
			cleaning INTEGER NOT NULL,
			status TEXT NOT NULL,
			message TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS range_results (
			run_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			students INTEGER NOT NULL,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_submitted_at ON runs(submitted_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a submitted run and its range results.
func (s *Store) InsertRun(ctx context.Context, run model.RunHistory) (int64, error) {
	if run.Kind != model.RunSingle && run.Kind != model.RunRange {
		return 0, fmt.Errorf("unknown run kind %q", run.Kind)
	}
	if run.SubmittedAt.IsZero() {
		run.SubmittedAt = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (kind, submitted_at, rows, cols, min_students, max_students, student_step, repeat_count, humanities, science, engineering, cleaning, status, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(run.Kind),
		run.SubmittedAt.UTC().Format(time.RFC3339Nano),
		run.Rows,
		run.Cols,
		run.MinStudents,
		run.MaxStudents,
		run.StudentStep,
		run.RepeatCount,
		run.Humanities,
		run.Science,
		run.Engineering,
		run.Cleaning,
		run.Status,
		run.Message,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(run.Results) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO range_results (run_id, position, students) VALUES (?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, r := range run.Results {
			if _, err := stmt.ExecContext(ctx, id, i, r.Students); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.RunHistory, error) {
	query := `SELECT id, kind, submitted_at, rows, cols, min_students, max_students, student_step, repeat_count,
		humanities, science, engineering, cleaning, status, message
		FROM runs
		ORDER BY submitted_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunHistory
	for rows.Next() {
		var run model.RunHistory
		var kind, submittedAt string
		if err := rows.Scan(&run.ID, &kind, &submittedAt, &run.Rows, &run.Cols, &run.MinStudents, &run.MaxStudents,
			&run.StudentStep, &run.RepeatCount, &run.Humanities, &run.Science, &run.Engineering, &run.Cleaning,
			&run.Status, &run.Message); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, submittedAt)
		if err != nil {
			return nil, err
		}
		run.Kind = model.RunKind(kind)
		run.SubmittedAt = parsed
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachResults(ctx, runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Store) attachResults(ctx context.Context, runs []model.RunHistory) error {
	if len(runs) == 0 {
		return nil
	}
	placeholders := make([]string, len(runs))
	args := make([]any, len(runs))
	index := make(map[int64]int, len(runs))
	for i, run := range runs {
		placeholders[i] = "?"
		args[i] = run.ID
		index[run.ID] = i
	}
	query := fmt.Sprintf(`SELECT run_id, students FROM range_results
		WHERE run_id IN (%s)
		ORDER BY run_id, position`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var runID int64
		var res model.RangeResult
		if err := rows.Scan(&runID, &res.Students); err != nil {
			return err
		}
		i := index[runID]
		runs[i].Results = append(runs[i].Results, res)
	}
	return rows.Err()
}

// HistoryFromRun builds a history entry for a single-run submission.
func HistoryFromRun(req model.RunRequest, resp model.RunResponse, submitErr error) model.RunHistory {
	h := model.RunHistory{
		Kind:        model.RunSingle,
		SubmittedAt: time.Now(),
		Rows:        req.Rows,
		Cols:        req.Cols,
		MinStudents: req.TotalStudents,
		MaxStudents: req.TotalStudents,
		StudentStep: 1,
		RepeatCount: 1,
		Humanities:  req.HumanitiesRatio,
		Science:     req.ScienceRatio,
		Engineering: req.EngineeringRatio,
		Cleaning:    req.CleaningTime,
	}
	return withOutcome(h, resp, submitErr)
}

// HistoryFromRange builds a history entry for a range submission.
func HistoryFromRange(req model.RangeRunRequest, resp model.RunResponse, submitErr error) model.RunHistory {
	h := model.RunHistory{
		Kind:        model.RunRange,
		SubmittedAt: time.Now(),
		Rows:        req.Rows,
		Cols:        req.Cols,
		MinStudents: req.MinStudents,
		MaxStudents: req.MaxStudents,
		StudentStep: req.StudentStep,
		RepeatCount: req.RepeatCount,
		Humanities:  req.HumanitiesRatio,
		Science:     req.ScienceRatio,
		Engineering: req.EngineeringRatio,
		Cleaning:    req.CleaningTime,
	}
	return withOutcome(h, resp, submitErr)
}

func withOutcome(h model.RunHistory, resp model.RunResponse, submitErr error) model.RunHistory {
	if submitErr != nil {
		h.Status = "error"
		h.Message = submitErr.Error()
		return h
	}
	h.Status = resp.Status
	h.Message = resp.Message
	h.Results = resp.Results
	return h
}
