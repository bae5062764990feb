package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"sabacc_bot/internal/game"
	"sabacc_bot/internal/metrics"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_key TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	state       BLOB NOT NULL,
	updated_at  INTEGER NOT NULL,
	expires_at  INTEGER NOT NULL
)`

// хранит столы в одном файле sqlite для запуска без redis
type SQLiteSessionStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenSQLiteSessionStore открывает базу и создает таблицу.
// ":memory:" годится для тестов
func OpenSQLiteSessionStore(path string, ttl time.Duration) (*SQLiteSessionStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// одна запись за раз; для :memory: еще и единственная база
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &SQLiteSessionStore{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLiteSessionStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteSessionStore) Load(ctx context.Context, key string) (*game.Session, error) {
	defer metrics.ObserveStore("sqlite", "load", time.Now())

	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM sessions WHERE session_key = ? AND (expires_at = 0 OR expires_at > ?)`,
		key, s.now().UnixMilli(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite load %s: %w", key, err)
	}
	return decodeSession(raw)
}

func (s *SQLiteSessionStore) Save(ctx context.Context, key string, sess *game.Session) error {
	defer metrics.ObserveStore("sqlite", "save", time.Now())

	raw, err := encodeSession(sess)
	if err != nil {
		return err
	}
	now := s.now()
	var expires int64
	if s.ttl > 0 {
		expires = now.Add(s.ttl).UnixMilli()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_key, status, state, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_key) DO UPDATE SET
			status = excluded.status,
			state = excluded.state,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at
	`, key, string(sess.Status), raw, now.UnixMilli(), expires)
	if err != nil {
		return fmt.Errorf("sqlite save %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteSessionStore) Delete(ctx context.Context, key string) error {
	defer metrics.ObserveStore("sqlite", "delete", time.Now())

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_key = ?`, key); err != nil {
		return fmt.Errorf("sqlite delete %s: %w", key, err)
	}
	return nil
}

// PurgeExpired удаляет просроченные столы
func (s *SQLiteSessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at > 0 AND expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sqlite purge: %w", err)
	}
	return res.RowsAffected()
}
