package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLitePersister stores encoded snapshots in a single SQLite table.
type SQLitePersister struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLitePersister, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("session: create data dir: %w", err)
		}
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", path, err)
	}
	// One writer; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("session: pragma %q: %w", p, err)
		}
	}

	p := &SQLitePersister{db: db, now: time.Now}
	if err := p.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

func (p *SQLitePersister) migrate() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			snapshot   BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := p.db.Exec(schema); err != nil {
		return fmt.Errorf("session: migrate: %w", err)
	}
	return nil
}

// Close releases the database.
func (p *SQLitePersister) Close() error {
	return p.db.Close()
}

// Save upserts the snapshot for id.
func (p *SQLitePersister) Save(ctx context.Context, id string, data []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO sessions (id, snapshot, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		id, data, p.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("session: save %s: %w", id, err)
	}
	return nil
}

// Load returns the stored snapshot or ErrNotFound.
func (p *SQLitePersister) Load(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT snapshot FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: load %s: %w", id, err)
	}
	return data, nil
}

// Delete removes id and reports whether a row existed.
func (p *SQLitePersister) Delete(ctx context.Context, id string) (bool, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("session: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("session: delete %s: %w", id, err)
	}
	return n > 0, nil
}

// Prune deletes snapshots not written within retention and returns how many
// were removed.
func (p *SQLitePersister) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := p.now().Add(-retention).UnixMilli()
	res, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("session: prune: %w", err)
	}
	return res.RowsAffected()
}
