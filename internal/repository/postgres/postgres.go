// Package postgres implements the repositories on PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/model"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository"
)

const uniqueViolation = "23505"

// Store manages the PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New connects and creates the schema when missing.
func New(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Migrate creates the necessary tables if they don't exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(80) NOT NULL UNIQUE,
		email VARCHAR(120) NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		api_key VARCHAR(100) UNIQUE
	);

	CREATE TABLE IF NOT EXISTS processing_history (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		operation_type VARCHAR(50) NOT NULL,
		image_path VARCHAR(200),
		message_length INTEGER DEFAULT 0,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		success BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS favorites (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		image_path VARCHAR(200),
		message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS user_preferences (
		user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		theme VARCHAR(20) NOT NULL DEFAULT 'light',
		notifications_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		max_file_size BIGINT NOT NULL DEFAULT 5242880,
		preferred_image_format VARCHAR(10) NOT NULL DEFAULT 'png'
	);

	CREATE INDEX IF NOT EXISTS idx_history_user_timestamp ON processing_history(user_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_favorites_user ON favorites(user_id);
	`)
	return err
}

func (s *Store) Users() repository.UserRepository { return (*userRepo)(s) }
func (s *Store) History() repository.HistoryRepository { return (*historyRepo)(s) }
func (s *Store) Favorites() repository.FavoriteRepository { return (*favoriteRepo)(s) }
func (s *Store) Preferences() repository.PreferenceRepository { return (*preferenceRepo)(s) }

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	}
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func requireRow(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ========================================
// Users
// ========================================

type userRepo Store

const userColumns = `id, username, email, password_hash, created_at, is_admin, COALESCE(api_key, '')`

func (r *userRepo) Create(ctx context.Context, u *model.User) (int64, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, created_at, is_admin, api_key)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id
	`, u.Username, u.Email, u.PasswordHash, u.CreatedAt, u.IsAdmin, nullable(u.APIKey)).Scan(&u.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", translate(err))
	}
	return u.ID, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepo) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.IsAdmin, &u.APIKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET email = $1, password_hash = $2, is_admin = $3 WHERE id = $4
	`, u.Email, u.PasswordHash, u.IsAdmin, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translate(err))
	}
	return requireRow(tag)
}

// ========================================
// History
// ========================================

type historyRepo Store

func (r *historyRepo) Insert(ctx context.Context, h *model.History) (int64, error) {
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now().UTC()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO processing_history (user_id, operation_type, image_path, message_length, timestamp, success)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id
	`, h.UserID, h.OperationType, nullable(h.ImagePath), h.MessageLength, h.Timestamp, h.Success).Scan(&h.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert history: %w", translate(err))
	}
	return h.ID, nil
}

func (r *historyRepo) ListByUser(ctx context.Context, userID int64) ([]model.History, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, operation_type, image_path, message_length, timestamp, success
		FROM processing_history WHERE user_id = $1
		ORDER BY timestamp DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	history := []model.History{}
	for rows.Next() {
		var h model.History
		var path *string
		if err := rows.Scan(&h.ID, &h.UserID, &h.OperationType, &path, &h.MessageLength, &h.Timestamp, &h.Success); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		h.ImagePath = deref(path)
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *historyRepo) Delete(ctx context.Context, id, userID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM processing_history WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return requireRow(tag)
}

// ========================================
// Favorites and preferences
// ========================================

type favoriteRepo Store

func (r *favoriteRepo) Insert(ctx context.Context, f *model.Favorite) (int64, error) {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO favorites (user_id, image_path, message, created_at) VALUES ($1, $2, $3, $4) RETURNING id
	`, f.UserID, nullable(f.ImagePath), f.Message, f.CreatedAt).Scan(&f.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert favorite: %w", translate(err))
	}
	return f.ID, nil
}

func (r *favoriteRepo) ListByUser(ctx context.Context, userID int64) ([]model.Favorite, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, image_path, message, created_at FROM favorites WHERE user_id = $1 ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []model.Favorite{}
	for rows.Next() {
		var f model.Favorite
		var path *string
		if err := rows.Scan(&f.ID, &f.UserID, &path, &f.Message, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		f.ImagePath = deref(path)
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

type preferenceRepo Store

func (r *preferenceRepo) Get(ctx context.Context, userID int64) (*model.Preference, error) {
	p := model.Preference{UserID: userID}
	err := r.pool.QueryRow(ctx, `
		SELECT theme, notifications_enabled, max_file_size, preferred_image_format
		FROM user_preferences WHERE user_id = $1
	`, userID).Scan(&p.Theme, &p.NotificationsEnabled, &p.MaxFileSize, &p.PreferredImageFormat)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return &p, nil
}

func (r *preferenceRepo) Upsert(ctx context.Context, p *model.Preference) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_preferences (user_id, theme, notifications_enabled, max_file_size, preferred_image_format)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			theme = EXCLUDED.theme,
			notifications_enabled = EXCLUDED.notifications_enabled,
			max_file_size = EXCLUDED.max_file_size,
			preferred_image_format = EXCLUDED.preferred_image_format
	`, p.UserID, p.Theme, p.NotificationsEnabled, p.MaxFileSize, p.PreferredImageFormat)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", translate(err))
	}
	return nil
}
