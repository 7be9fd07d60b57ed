// Package statsdb is an optional sink that persists batch-runner statistics
// (spec §4.7) to a SQLite database, adapting the teacher's catacombs
// session-logging store to place/transition/reset stat rows instead of game
// state.
package statsdb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/petrisim/macchiato/batch"
)

// Store persists batch results under a run-group identifier.
type Store struct {
	db *sql.DB
}

// New opens (creating if necessary) a SQLite database at path and ensures
// its schema exists.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("statsdb: opening %q: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("statsdb: migrating: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		net_name TEXT NOT NULL,
		runs INTEGER NOT NULL,
		total_clock REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS place_totals (
		batch_id TEXT NOT NULL REFERENCES batches(id),
		place TEXT NOT NULL,
		ins INTEGER NOT NULL,
		outs INTEGER NOT NULL,
		reset_count INTEGER NOT NULL,
		total_token_time REAL NOT NULL,
		PRIMARY KEY (batch_id, place)
	);

	CREATE TABLE IF NOT EXISTS trans_totals (
		batch_id TEXT NOT NULL REFERENCES batches(id),
		trans TEXT NOT NULL,
		fired_count INTEGER NOT NULL,
		PRIMARY KEY (batch_id, trans)
	);

	CREATE TABLE IF NOT EXISTS bucket_stats (
		batch_id TEXT NOT NULL REFERENCES batches(id),
		series TEXT NOT NULL, -- 'tokens' | 'resets' | 'fired'
		label TEXT NOT NULL,
		bucket INTEGER NOT NULL,
		mean REAL NOT NULL,
		se REAL NOT NULL,
		n INTEGER NOT NULL,
		PRIMARY KEY (batch_id, series, label, bucket)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordBatch persists a batch Result under batchID, replacing any prior
// rows for that ID. netName identifies which net the batch ran.
func (s *Store) RecordBatch(batchID, netName string, result *batch.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("statsdb: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"bucket_stats", "trans_totals", "place_totals"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE batch_id = ?`, batchID); err != nil {
			return fmt.Errorf("statsdb: clearing prior %s rows: %w", table, err)
		}
	}
	if _, err := tx.Exec(`DELETE FROM batches WHERE id = ?`, batchID); err != nil {
		return fmt.Errorf("statsdb: clearing prior batch row: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO batches (id, net_name, runs, total_clock) VALUES (?, ?, ?, ?)`,
		batchID, netName, result.Runs, result.TotalClock,
	); err != nil {
		return fmt.Errorf("statsdb: inserting batch row: %w", err)
	}

	for label, t := range result.PlaceTotals {
		if _, err := tx.Exec(
			`INSERT INTO place_totals (batch_id, place, ins, outs, reset_count, total_token_time)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			batchID, label, t.Ins, t.Outs, t.ResetCount, t.TotalTokenTime,
		); err != nil {
			return fmt.Errorf("statsdb: inserting place total %q: %w", label, err)
		}
	}
	for label, n := range result.TransTotals {
		if _, err := tx.Exec(
			`INSERT INTO trans_totals (batch_id, trans, fired_count) VALUES (?, ?, ?)`,
			batchID, label, n,
		); err != nil {
			return fmt.Errorf("statsdb: inserting transition total %q: %w", label, err)
		}
	}

	if result.Buckets != nil {
		if err := recordBucketSeries(tx, batchID, "tokens", result.Buckets.Tokens); err != nil {
			return err
		}
		if err := recordBucketSeries(tx, batchID, "resets", result.Buckets.Resets); err != nil {
			return err
		}
		if err := recordBucketSeries(tx, batchID, "fired", result.Buckets.Fired); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func recordBucketSeries(tx *sql.Tx, batchID, series string, byLabel map[string][]batch.BucketStat) error {
	for label, stats := range byLabel {
		for bucket, st := range stats {
			if _, err := tx.Exec(
				`INSERT INTO bucket_stats (batch_id, series, label, bucket, mean, se, n)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				batchID, series, label, bucket, st.Mean, st.SE, st.N,
			); err != nil {
				return fmt.Errorf("statsdb: inserting %s bucket row for %q: %w", series, label, err)
			}
		}
	}
	return nil
}
