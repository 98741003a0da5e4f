package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stellarlinkco/havoice-eval/internal/config"
)

const (
	defaultListLimit = 50

	// DefaultSQLitePath is where run history lands when storage.path is
	// not configured.
	DefaultSQLitePath = "data/havoice-eval.db"
)

// Open creates the configured Store. The "memory" type is an in-memory
// SQLite database, used by tests and throwaway runs.
func Open(cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, errors.New("store: missing config")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Type)) {
	case "", "sqlite":
		path := strings.TrimSpace(cfg.Storage.Path)
		if path == "" {
			path = DefaultSQLitePath
		}
		return NewSQLiteStore(path)
	case "memory":
		return NewSQLiteStore(":memory:")
	default:
		return nil, fmt.Errorf("store: unsupported type %q", cfg.Storage.Type)
	}
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertRunStmt    *sql.Stmt
	insertSampleStmt *sql.Stmt
	getRunStmt       *sql.Stmt
	listRunsStmt     *sql.Stmt
	samplesByRunStmt *sql.Stmt
}

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := st.prepareStatements(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			dataset TEXT NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			tool_tier TEXT NOT NULL,
			total_samples INTEGER NOT NULL,
			correct_samples INTEGER NOT NULL,
			errored_samples INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			total_latency_ms INTEGER NOT NULL,
			total_tokens INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS samples (
			run_id TEXT NOT NULL,
			case_id TEXT NOT NULL,
			overall TEXT NOT NULL,
			dimensions TEXT NOT NULL,
			matched_alternative INTEGER NOT NULL,
			explanation TEXT NOT NULL,
			tool_calls TEXT,
			latency_ms INTEGER NOT NULL,
			tokens_used INTEGER NOT NULL,
			error TEXT,
			PRIMARY KEY (run_id, case_id),
			FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_run_id ON samples(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	ctx := context.Background()
	type stmtSpec struct {
		dst    **sql.Stmt
		query  string
		errFmt string
	}

	specs := []stmtSpec{
		{
			dst: &s.insertRunStmt,
			query: `
				INSERT INTO runs (
					id, started_at, finished_at, dataset, provider, model, tool_tier,
					total_samples, correct_samples, errored_samples, accuracy,
					total_latency_ms, total_tokens
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert run: %w",
		},
		{
			dst: &s.insertSampleStmt,
			query: `
				INSERT INTO samples (
					run_id, case_id, overall, dimensions, matched_alternative,
					explanation, tool_calls, latency_ms, tokens_used, error
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert sample: %w",
		},
		{
			dst: &s.getRunStmt,
			query: `
				SELECT id, started_at, finished_at, dataset, provider, model, tool_tier,
					total_samples, correct_samples, errored_samples, accuracy,
					total_latency_ms, total_tokens
				FROM runs WHERE id = ?
			`,
			errFmt: "store: prepare get run: %w",
		},
		{
			dst: &s.listRunsStmt,
			query: `
				SELECT id, started_at, finished_at, dataset, provider, model, tool_tier,
					total_samples, correct_samples, errored_samples, accuracy,
					total_latency_ms, total_tokens
				FROM runs
				ORDER BY started_at DESC
				LIMIT ?
			`,
			errFmt: "store: prepare list runs: %w",
		},
		{
			dst: &s.samplesByRunStmt,
			query: `
				SELECT case_id, overall, dimensions, matched_alternative,
					explanation, tool_calls, latency_ms, tokens_used, error
				FROM samples
				WHERE run_id = ?
				ORDER BY case_id ASC
			`,
			errFmt: "store: prepare get samples: %w",
		},
	}

	for _, spec := range specs {
		stmt, err := s.db.PrepareContext(ctx, spec.query)
		if err != nil {
			return fmt.Errorf(spec.errFmt, err)
		}
		*spec.dst = stmt
	}
	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	stmts := []*sql.Stmt{
		s.insertRunStmt,
		s.insertSampleStmt,
		s.getRunStmt,
		s.listRunsStmt,
		s.samplesByRunStmt,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun persists a run summary and its per-sample verdicts in one
// transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}
	if run == nil {
		return errors.New("store: nil run")
	}
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("store: run missing id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.StmtContext(ctx, s.insertRunStmt).ExecContext(ctx,
		run.ID,
		run.StartedAt.Unix(),
		run.FinishedAt.Unix(),
		run.Dataset,
		run.Provider,
		run.Model,
		run.ToolTier,
		run.TotalSamples,
		run.CorrectSamples,
		run.ErroredSamples,
		run.Accuracy,
		run.TotalLatencyMs,
		run.TotalTokens,
	)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}

	for i := range run.Samples {
		sample := &run.Samples[i]
		dims, err := json.Marshal(sample.Dimensions)
		if err != nil {
			return fmt.Errorf("store: marshal dimensions: %w", err)
		}
		_, err = tx.StmtContext(ctx, s.insertSampleStmt).ExecContext(ctx,
			run.ID,
			sample.CaseID,
			sample.Overall,
			string(dims),
			sample.MatchedAlternative,
			sample.Explanation,
			sample.ToolCallsJSON,
			sample.LatencyMs,
			sample.TokensUsed,
			sample.Error,
		)
		if err != nil {
			return fmt.Errorf("store: insert sample %q: %w", sample.CaseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// GetRun returns one run summary without its samples.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if s == nil || s.getRunStmt == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	row := s.getRunStmt.QueryRowContext(ctx, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: run %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get run: %w", err)
	}
	return run, nil
}

// ListRuns returns recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	if s == nil || s.listRunsStmt == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.listRunsStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return out, nil
}

// GetSamples returns the per-sample verdicts for one run.
func (s *SQLiteStore) GetSamples(ctx context.Context, runID string) ([]*SampleRecord, error) {
	if s == nil || s.samplesByRunStmt == nil {
		return nil, errors.New("store: nil sqlite store")
	}

	rows, err := s.samplesByRunStmt.QueryContext(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("store: get samples: %w", err)
	}
	defer rows.Close()

	var out []*SampleRecord
	for rows.Next() {
		var rec SampleRecord
		var dims string
		var toolCalls, errMsg sql.NullString
		err := rows.Scan(
			&rec.CaseID,
			&rec.Overall,
			&dims,
			&rec.MatchedAlternative,
			&rec.Explanation,
			&toolCalls,
			&rec.LatencyMs,
			&rec.TokensUsed,
			&errMsg,
		)
		if err != nil {
			return nil, fmt.Errorf("store: scan sample: %w", err)
		}
		if dims != "" {
			if err := json.Unmarshal([]byte(dims), &rec.Dimensions); err != nil {
				return nil, fmt.Errorf("store: decode dimensions: %w", err)
			}
		}
		rec.ToolCallsJSON = toolCalls.String
		rec.Error = errMsg.String
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: get samples: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var run RunRecord
	var started, finished int64
	err := row.Scan(
		&run.ID,
		&started,
		&finished,
		&run.Dataset,
		&run.Provider,
		&run.Model,
		&run.ToolTier,
		&run.TotalSamples,
		&run.CorrectSamples,
		&run.ErroredSamples,
		&run.Accuracy,
		&run.TotalLatencyMs,
		&run.TotalTokens,
	)
	if err != nil {
		return nil, err
	}
	run.StartedAt = time.Unix(started, 0)
	run.FinishedAt = time.Unix(finished, 0)
	return &run, nil
}
