package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/model"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository"
)

// UserRepository implements repository.UserRepository for SQLite.
type UserRepository struct {
	db *DB
}

const userColumns = `id, username, email, password_hash, created_at, is_admin, COALESCE(api_key, '')`

// Create inserts a user and returns its ID.
func (r *UserRepository) Create(ctx context.Context, u *model.User) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	result, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, created_at, is_admin, api_key)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.Username, u.Email, u.PasswordHash, u.CreatedAt, u.IsAdmin, nullString(u.APIKey))
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", translate(err))
	}
	u.ID, err = result.LastInsertId()
	return u.ID, err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var u model.User
	err := r.db.Conn().QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.IsAdmin, &u.APIKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// Update saves email, password hash and admin flag.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().ExecContext(ctx, `
		UPDATE users SET email = ?, password_hash = ?, is_admin = ? WHERE id = ?
	`, u.Email, u.PasswordHash, u.IsAdmin, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translate(err))
	}
	return requireRow(result)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
