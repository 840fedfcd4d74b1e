package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv_records (
	record_key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps the roster document in a single-row key/value table of a
// local SQLite file.
type SQLiteStore struct {
	sqlDB *sql.DB
	key   string
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(path, key string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB, key: strings.TrimSpace(key)}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) ([]Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var raw string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM kv_records WHERE record_key = ?`, s.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select roster: %w", err)
	}
	return decodeDocument([]byte(raw))
}

func (s *SQLiteStore) Save(ctx context.Context, players []Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encodeDocument(players)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO kv_records (record_key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(record_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key,
		string(raw),
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert roster: %w", err)
	}
	return nil
}
