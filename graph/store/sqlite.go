package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/corvid-labs/chatgraph/graph"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a single-file graph.CheckpointStore backend, useful for
// local development and for tests that want persistence across process
// restarts without standing up MySQL.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at path
// and ensures the checkpoints table exists. Use ":memory:" for an
// ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite allows one writer at a time

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure sqlite: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTable(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS checkpoints (
			id                TEXT NOT NULL,
			thread_id         TEXT NOT NULL,
			run_id            TEXT NOT NULL,
			step_index        INTEGER NOT NULL,
			frontier          TEXT NOT NULL,
			store_snapshot    TEXT NOT NULL,
			pending_interrupt TEXT,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (thread_id, id)
		)
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create checkpoints table: %w", err)
	}
	const index = `CREATE INDEX IF NOT EXISTS idx_checkpoints_thread ON checkpoints(thread_id, step_index, id)`
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("create checkpoints index: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, cp graph.Checkpoint) error {
	r, err := toRecord(cp)
	if err != nil {
		return err
	}
	frontierJSON, err := canonicalMarshal(r.Frontier)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO checkpoints (id, thread_id, run_id, step_index, frontier, store_snapshot, pending_interrupt)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	var pendingInterrupt any
	if len(r.PendingInterrupt) > 0 {
		pendingInterrupt = string(r.PendingInterrupt)
	}
	_, err = s.db.ExecContext(ctx, query, r.ID, r.ThreadID, r.RunID, r.StepIndex,
		string(frontierJSON), string(r.StoreSnapshot), pendingInterrupt)
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadLatest(ctx context.Context, threadID string) (graph.Checkpoint, bool, error) {
	const query = `
		SELECT id, thread_id, run_id, step_index, frontier, store_snapshot, pending_interrupt
		FROM checkpoints
		WHERE thread_id = ?
		ORDER BY step_index DESC, id DESC
		LIMIT 1
	`
	row := s.db.QueryRowContext(ctx, query, threadID)

	var r record
	var frontierJSON string
	var pendingInterrupt sql.NullString
	var storeSnapshot string
	if err := row.Scan(&r.ID, &r.ThreadID, &r.RunID, &r.StepIndex, &frontierJSON, &storeSnapshot, &pendingInterrupt); err != nil {
		if err == sql.ErrNoRows {
			return graph.Checkpoint{}, false, nil
		}
		return graph.Checkpoint{}, false, fmt.Errorf("load checkpoint: %w", err)
	}
	r.StoreSnapshot = []byte(storeSnapshot)
	if pendingInterrupt.Valid {
		r.PendingInterrupt = []byte(pendingInterrupt.String)
	}
	if err := jsonUnmarshalString(frontierJSON, &r.Frontier); err != nil {
		return graph.Checkpoint{}, false, fmt.Errorf("decode frontier: %w", err)
	}

	cp, err := fromRecord(r)
	if err != nil {
		return graph.Checkpoint{}, false, err
	}
	return cp, true, nil
}
