// Package store handles SQLite persistence of evaluation runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/compute-wer/internal/model"

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
			uuid TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			ref_path TEXT NOT NULL,
			hyp_path TEXT NOT NULL,
			char_mode INTEGER NOT NULL,
			max_wer REAL,
			utterances INTEGER NOT NULL,
			cor INTEGER NOT NULL,
			sub INTEGER NOT NULL,
			del INTEGER NOT NULL,
			ins INTEGER NOT NULL,
			ser_correct INTEGER NOT NULL,
			ser_error INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_token_stats (
			run_id INTEGER NOT NULL,
			token TEXT NOT NULL,
			cor INTEGER NOT NULL,
			sub INTEGER NOT NULL,
			del INTEGER NOT NULL,
			ins INTEGER NOT NULL,
			PRIMARY KEY (run_id, token)
		);`,
		`CREATE TABLE IF NOT EXISTS run_cluster_stats (
			run_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			cor INTEGER NOT NULL,
			sub INTEGER NOT NULL,
			del INTEGER NOT NULL,
			ins INTEGER NOT NULL,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_run_token_stats_token ON run_token_stats(token);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a completed run with its per-token and per-cluster stats.
// An empty UUID is filled in; the stored UUID is returned with the row id.
func (s *Store) InsertRun(ctx context.Context, run model.RunStats, tokens []model.TokenStats, clusters []model.ClusterStats) (int64, string, error) {
	if run.UUID == "" {
		run.UUID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	var maxWER sql.NullFloat64
	if !math.IsInf(run.MaxWER, 0) && !math.IsNaN(run.MaxWER) {
		maxWER = sql.NullFloat64{Float64: run.MaxWER, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", err
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
		`INSERT INTO runs (uuid, created_at, ref_path, hyp_path, char_mode, max_wer, utterances, cor, sub, del, ins, ser_correct, ser_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.UUID,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.RefPath,
		run.HypPath,
		run.CharMode,
		maxWER,
		run.Utterances,
		run.Equal,
		run.Replace,
		run.Delete,
		run.Insert,
		run.SERCorrect,
		run.SERError,
	)
	if err != nil {
		return 0, "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, "", err
	}

	if err = insertTokens(ctx, tx, id, tokens); err != nil {
		return 0, "", err
	}
	if err = insertClusters(ctx, tx, id, clusters); err != nil {
		return 0, "", err
	}

	if err = tx.Commit(); err != nil {
		return 0, "", err
	}
	return id, run.UUID, nil
}

func insertTokens(ctx context.Context, tx *sql.Tx, runID int64, tokens []model.TokenStats) error {
	if len(tokens) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_token_stats (run_id, token, cor, sub, del, ins)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, ts := range tokens {
		if _, err := stmt.ExecContext(ctx, runID, ts.Token, ts.Equal, ts.Replace, ts.Delete, ts.Insert); err != nil {
			return err
		}
	}
	return nil
}

func insertClusters(ctx context.Context, tx *sql.Tx, runID int64, clusters []model.ClusterStats) error {
	if len(clusters) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_cluster_stats (run_id, position, name, cor, sub, del, ins)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i, cs := range clusters {
		if _, err := stmt.ExecContext(ctx, runID, i, cs.Name, cs.Equal, cs.Replace, cs.Delete, cs.Insert); err != nil {
			return err
		}
	}
	return nil
}

// GetWeakTokens aggregates token stats over the most recent runs.
func (s *Store) GetWeakTokens(ctx context.Context, window int, ref string) ([]model.TokenAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_runs AS (
		SELECT id FROM runs
		WHERE (? = '' OR ref_path = ?)
		ORDER BY created_at DESC
		LIMIT ?
	)
	SELECT ts.token, SUM(ts.cor), SUM(ts.sub), SUM(ts.del), SUM(ts.ins)
	FROM run_token_stats ts
	JOIN recent_runs r ON r.id = ts.run_id
	GROUP BY ts.token`

	rows, err := s.db.QueryContext(ctx, query, ref, ref, window)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.TokenAggregate
	for rows.Next() {
		var agg model.TokenAggregate
		if err := rows.Scan(&agg.Token, &agg.Equal, &agg.Replace, &agg.Delete, &agg.Insert); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListRuns returns run aggregates filtered by history config, oldest first.
func (s *Store) ListRuns(ctx context.Context, cfg model.HistoryConfig) ([]model.RunAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Ref != "" {
		clauses = append(clauses, "ref_path = ?")
		args = append(args, cfg.Ref)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, cfg.Since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, uuid, created_at, ref_path, utterances, cor, sub, del, ins, ser_correct, ser_error
		FROM runs
		WHERE %s
		ORDER BY created_at ASC, id ASC`, strings.Join(clauses, " AND "))
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

	var runs []model.RunAggregate
	for rows.Next() {
		var agg model.RunAggregate
		var createdAt string
		if err := rows.Scan(&agg.RunID, &agg.UUID, &createdAt, &agg.RefPath, &agg.Utterances,
			&agg.Equal, &agg.Replace, &agg.Delete, &agg.Insert, &agg.SERCorrect, &agg.SERError); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		agg.CreatedAt = parsed
		runs = append(runs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// ListTokenAggregatesForRuns aggregates per-token stats across runs.
func (s *Store) ListTokenAggregatesForRuns(ctx context.Context, runIDs []int64) ([]model.TokenAggregate, error) {
	if len(runIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(runIDs)
	query := fmt.Sprintf(`SELECT token, SUM(cor), SUM(sub), SUM(del), SUM(ins)
		FROM run_token_stats
		WHERE run_id IN (%s)
		GROUP BY token`, placeholders)
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

	var result []model.TokenAggregate
	for rows.Next() {
		var agg model.TokenAggregate
		if err := rows.Scan(&agg.Token, &agg.Equal, &agg.Replace, &agg.Delete, &agg.Insert); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListTokenStatsForRuns returns per-run stats for selected tokens.
func (s *Store) ListTokenStatsForRuns(ctx context.Context, runIDs []int64, tokens []string) (map[int64]map[string]model.TokenAggregate, error) {
	if len(runIDs) == 0 || len(tokens) == 0 {
		return map[int64]map[string]model.TokenAggregate{}, nil
	}
	idPlaceholders, args := inClause(runIDs)
	tokPlaceholders := make([]string, len(tokens))
	for i, tok := range tokens {
		tokPlaceholders[i] = "?"
		args = append(args, tok)
	}

	query := fmt.Sprintf(`SELECT run_id, token, cor, sub, del, ins
		FROM run_token_stats
		WHERE run_id IN (%s) AND token IN (%s)`, idPlaceholders, strings.Join(tokPlaceholders, ","))

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

	result := map[int64]map[string]model.TokenAggregate{}
	for rows.Next() {
		var runID int64
		var agg model.TokenAggregate
		if err := rows.Scan(&runID, &agg.Token, &agg.Equal, &agg.Replace, &agg.Delete, &agg.Insert); err != nil {
			return nil, err
		}
		if _, ok := result[runID]; !ok {
			result[runID] = map[string]model.TokenAggregate{}
		}
		result[runID][agg.Token] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListClusterStats returns the clusters of one run in their recorded order.
func (s *Store) ListClusterStats(ctx context.Context, runID int64) ([]model.ClusterStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, cor, sub, del, ins
		 FROM run_cluster_stats
		 WHERE run_id = ?
		 ORDER BY position ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ClusterStats
	for rows.Next() {
		var cs model.ClusterStats
		if err := rows.Scan(&cs.Name, &cs.Equal, &cs.Replace, &cs.Delete, &cs.Insert); err != nil {
			return nil, err
		}
		result = append(result, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func inClause(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}
