// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Per-session FIFO queue with atomic pop inside an immediate transaction

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// _txlock=immediate takes the write lock at BEGIN so concurrent pops
	// queue on busy_timeout instead of failing with SQLITE_BUSY mid-transaction.
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if path == ":memory:" {
		// Each pooled connection would otherwise get its own private
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS riddle_queue (
			pos         INTEGER PRIMARY KEY AUTOINCREMENT,
			riddle_id   TEXT NOT NULL,
			session_id  TEXT NOT NULL,
			question    TEXT NOT NULL,
			latitude    REAL NOT NULL,
			longitude   REAL NOT NULL,
			difficulty  TEXT NOT NULL,
			created_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_riddle_queue_session
			ON riddle_queue(session_id, pos);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// PushRiddle appends a riddle to the tail of the session's queue. The
// AUTOINCREMENT position column makes insertion order the serving order.
func (s *SQLiteStore) PushRiddle(ctx context.Context, sessionID string, r *Riddle) error {
	query := `
		INSERT INTO riddle_queue (riddle_id, session_id, question, latitude, longitude, difficulty, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		sessionID,
		r.Question,
		r.Latitude,
		r.Longitude,
		r.Difficulty,
		r.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting riddle: %w: %w", ErrStoreUnavailable, err)
	}

	s.logger.Debug("pushed riddle",
		"riddle_id", r.ID,
		"session_id", sessionID,
	)
	return nil
}

// PopRiddle atomically removes and returns the head of the session's queue.
// The select and delete run inside a single immediate transaction so two
// concurrent pops can never return the same riddle.
func (s *SQLiteStore) PopRiddle(ctx context.Context, sessionID string) (*Riddle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning pop transaction: %w: %w", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	query := `
		SELECT pos, riddle_id, session_id, question, latitude, longitude, difficulty, created_at
		FROM riddle_queue
		WHERE session_id = ?
		ORDER BY pos ASC
		LIMIT 1
	`

	var pos int64
	var createdAt string
	r := &Riddle{}
	err = tx.QueryRowContext(ctx, query, sessionID).Scan(
		&pos,
		&r.ID,
		&r.SessionID,
		&r.Question,
		&r.Latitude,
		&r.Longitude,
		&r.Difficulty,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("selecting head riddle: %w: %w", ErrStoreUnavailable, err)
	}

	if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing riddle timestamp: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM riddle_queue WHERE pos = ?", pos); err != nil {
		return nil, fmt.Errorf("deleting head riddle: %w: %w", ErrStoreUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing pop: %w: %w", ErrStoreUnavailable, err)
	}

	s.logger.Debug("popped riddle",
		"riddle_id", r.ID,
		"session_id", sessionID,
	)
	return r, nil
}

// QueueDepth returns the current queue length for the session.
func (s *SQLiteStore) QueueDepth(ctx context.Context, sessionID string) (int, error) {
	var depth int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM riddle_queue WHERE session_id = ?", sessionID,
	).Scan(&depth)
	if err != nil {
		return 0, fmt.Errorf("counting queue: %w: %w", ErrStoreUnavailable, err)
	}
	return depth, nil
}

// PurgeSession deletes every queued riddle for a session.
func (s *SQLiteStore) PurgeSession(ctx context.Context, sessionID string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM riddle_queue WHERE session_id = ?", sessionID,
	)
	if err != nil {
		return 0, fmt.Errorf("purging session queue: %w: %w", ErrStoreUnavailable, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged rows: %w", err)
	}

	if rows > 0 {
		s.logger.Debug("purged session queue", "session_id", sessionID, "riddles", rows)
	}
	return int(rows), nil
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
