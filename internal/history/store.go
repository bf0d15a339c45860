package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"dealflow/internal/config"
	"dealflow/internal/reminders"
)

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 20

// Store records scan runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the history database under the configured data directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath connects to the database at path, creating it when missing.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordScan stores one scan result. A repeated run id replaces the earlier row.
func (s *Store) RecordScan(ctx context.Context, result reminders.Result) error {
	if result.RunID == "" {
		return fmt.Errorf("record scan: missing run id")
	}
	ranAt := result.RanAt
	if ranAt.IsZero() {
		ranAt = time.Now()
	}
	var errorsJSON any
	if len(result.Errors) > 0 {
		data, err := json.Marshal(result.Errors)
		if err != nil {
			return fmt.Errorf("marshal scan errors: %w", err)
		}
		errorsJSON = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO scan_runs (
            run_id, ran_at, success, email_sent, message, error, transport,
            deals_found, tasks_found, todos_found,
            overdue_deals_found, overdue_tasks_found, overdue_todos_found, errors_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		ranAt.UTC().Format(time.RFC3339Nano),
		boolToInt(result.Success),
		boolToInt(result.EmailSent),
		result.Message,
		nullableString(result.Error),
		nullableString(result.Transport),
		result.DealsFound,
		result.TasksFound,
		result.TodosFound,
		result.OverdueDealsFound,
		result.OverdueTasksFound,
		result.OverdueTodosFound,
		errorsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert scan run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]reminders.Result, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, ran_at, success, email_sent, message, error, transport,
            deals_found, tasks_found, todos_found,
            overdue_deals_found, overdue_tasks_found, overdue_todos_found, errors_json
        FROM scan_runs ORDER BY ran_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query scan runs: %w", err)
	}
	defer rows.Close()

	var out []reminders.Result
	for rows.Next() {
		result, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan runs: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (reminders.Result, error) {
	var (
		result                    reminders.Result
		ranAt                     string
		success, emailSent        int
		errText, transport, errJS sql.NullString
	)
	if err := row.Scan(
		&result.RunID, &ranAt, &success, &emailSent, &result.Message, &errText, &transport,
		&result.DealsFound, &result.TasksFound, &result.TodosFound,
		&result.OverdueDealsFound, &result.OverdueTasksFound, &result.OverdueTodosFound, &errJS,
	); err != nil {
		return reminders.Result{}, fmt.Errorf("scan run row: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, ranAt)
	if err != nil {
		return reminders.Result{}, fmt.Errorf("parse ran_at %q: %w", ranAt, err)
	}
	result.RanAt = parsed
	result.Success = success != 0
	result.EmailSent = emailSent != 0
	result.Error = errText.String
	result.Transport = transport.String
	if errJS.Valid && errJS.String != "" {
		if err := json.Unmarshal([]byte(errJS.String), &result.Errors); err != nil {
			return reminders.Result{}, fmt.Errorf("decode scan errors: %w", err)
		}
	}
	return result, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
