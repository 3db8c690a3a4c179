package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/corvid-labs/chatgraph/graph"
	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB graph.CheckpointStore backend, for
// workflows that need durable checkpoints surviving process restarts
// and shared across multiple runtime instances.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a MySQL connection pool and ensures the
// checkpoints table exists.
//
// DSN format: [username[:password]@][protocol[(address)]]/dbname[?params]
// e.g. "user:pass@tcp(localhost:3306)/chatgraph?parseTime=true"
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTable(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS checkpoints (
			id                VARCHAR(64) NOT NULL,
			thread_id         VARCHAR(255) NOT NULL,
			run_id            VARCHAR(64) NOT NULL,
			step_index        BIGINT UNSIGNED NOT NULL,
			frontier          JSON NOT NULL,
			store_snapshot    JSON NOT NULL,
			pending_interrupt JSON NULL,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (thread_id, id),
			INDEX idx_checkpoints_thread (thread_id, step_index, id)
		) ENGINE=InnoDB
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create checkpoints table: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func (s *MySQLStore) Save(ctx context.Context, cp graph.Checkpoint) error {
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

func (s *MySQLStore) LoadLatest(ctx context.Context, threadID string) (graph.Checkpoint, bool, error) {
	const query = `
		SELECT id, thread_id, run_id, step_index, frontier, store_snapshot, pending_interrupt
		FROM checkpoints
		WHERE thread_id = ?
		ORDER BY step_index DESC, id DESC
		LIMIT 1
	`
	row := s.db.QueryRowContext(ctx, query, threadID)

	var r record
	var frontierJSON, storeSnapshot string
	var pendingInterrupt sql.NullString
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
