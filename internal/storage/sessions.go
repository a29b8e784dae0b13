package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SessionTTL is the sliding expiry of a conversation snapshot. A user who
// abandons the wizard mid-flow simply leaves a stale snapshot that ages out.
const SessionTTL = 24 * time.Hour

// SessionStore persists serialized conversation snapshots keyed by Telegram
// user id. Get returns nil for a missing or expired snapshot; Save overwrites
// the entry and renews its expiry.
type SessionStore interface {
	Get(telegramID int64) ([]byte, error)
	Save(telegramID int64, snapshot []byte) error
	Delete(telegramID int64) error
	Close() error
}

// SQLiteSessionStore implements SessionStore on a local SQLite database.
type SQLiteSessionStore struct {
	db  *sql.DB
	ttl time.Duration

	// now is swappable in tests
	now func() time.Time
}

// NewSQLiteSessionStore opens (or creates) the snapshot database at dbPath.
func NewSQLiteSessionStore(dbPath string) (*SQLiteSessionStore, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	store := &SQLiteSessionStore{db: db, ttl: SessionTTL, now: time.Now}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteSessionStore) init() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		snapshot BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	);
	`)
	if err != nil {
		return fmt.Errorf("create snapshots table: %w", err)
	}
	return nil
}

func sessionKey(telegramID int64) string {
	return fmt.Sprintf("telegram_user_%d", telegramID)
}

// Get returns the stored snapshot, or nil if none exists or it has expired.
// Expired rows are removed on read.
func (s *SQLiteSessionStore) Get(telegramID int64) ([]byte, error) {
	key := sessionKey(telegramID)

	var snapshot []byte
	var expiresAt int64
	err := s.db.QueryRow(
		`SELECT snapshot, expires_at FROM snapshots WHERE key = ?`, key,
	).Scan(&snapshot, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	if s.now().Unix() >= expiresAt {
		if _, err := s.db.Exec(`DELETE FROM snapshots WHERE key = ?`, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to delete expired snapshot")
		}
		return nil, nil
	}
	return snapshot, nil
}

// Save overwrites the snapshot for the user and slides its expiry forward.
func (s *SQLiteSessionStore) Save(telegramID int64, snapshot []byte) error {
	expiresAt := s.now().Add(s.ttl).Unix()
	_, err := s.db.Exec(`
		INSERT INTO snapshots (key, snapshot, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET snapshot = excluded.snapshot, expires_at = excluded.expires_at
	`, sessionKey(telegramID), snapshot, expiresAt)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot for the user, if any.
func (s *SQLiteSessionStore) Delete(telegramID int64) error {
	if _, err := s.db.Exec(`DELETE FROM snapshots WHERE key = ?`, sessionKey(telegramID)); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteSessionStore) Close() error {
	return s.db.Close()
}
