package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex

	users       *UserRepository
	history     *HistoryRepository
	favorites   *FavoriteRepository
	preferences *PreferenceRepository
}

// New creates and initializes a new SQLite database connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}
	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db.users = &UserRepository{db: db}
	db.history = &HistoryRepository{db: db}
	db.favorites = &FavoriteRepository{db: db}
	db.preferences = &PreferenceRepository{db: db}
	return db, nil
}

// Migrate creates the necessary tables if they don't exist.
func (db *DB) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		is_admin BOOLEAN NOT NULL DEFAULT 0,
		api_key TEXT UNIQUE
	);

	CREATE TABLE IF NOT EXISTS processing_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		operation_type TEXT NOT NULL,
		image_path TEXT,
		message_length INTEGER DEFAULT 0,
		timestamp DATETIME NOT NULL,
		success BOOLEAN NOT NULL DEFAULT 1,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS favorites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		image_path TEXT,
		message TEXT DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS user_preferences (
		user_id INTEGER PRIMARY KEY,
		theme TEXT NOT NULL DEFAULT 'light',
		notifications_enabled BOOLEAN NOT NULL DEFAULT 1,
		max_file_size INTEGER NOT NULL DEFAULT 5242880,
		preferred_image_format TEXT NOT NULL DEFAULT 'png',
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_history_user_timestamp ON processing_history(user_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_favorites_user ON favorites(user_id);
	`

	db.Lock()
	defer db.Unlock()
	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) Users() repository.UserRepository { return db.users }
func (db *DB) History() repository.HistoryRepository { return db.history }
func (db *DB) Favorites() repository.FavoriteRepository { return db.favorites }
func (db *DB) Preferences() repository.PreferenceRepository { return db.preferences }

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	}
	return err
}
