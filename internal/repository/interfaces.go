package repository

import (
	"context"
	"errors"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/model"
)

var (
	// ErrNotFound is returned by deletes and updates that match no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("record already exists")
)

// UserRepository defines the interface for account data operations.
// Lookups return (nil, nil) when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// HistoryRepository defines the interface for processing history operations.
type HistoryRepository interface {
	Insert(ctx context.Context, h *model.History) (int64, error)
	// ListByUser returns newest first.
	ListByUser(ctx context.Context, userID int64) ([]model.History, error)
	// Delete removes a row only when it belongs to userID.
	Delete(ctx context.Context, id, userID int64) error
}

// FavoriteRepository defines the interface for favorite operations.
type FavoriteRepository interface {
	Insert(ctx context.Context, f *model.Favorite) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Favorite, error)
}

// PreferenceRepository defines the interface for user settings.
type PreferenceRepository interface {
	Get(ctx context.Context, userID int64) (*model.Preference, error)
	Upsert(ctx context.Context, p *model.Preference) error
}

// Store bundles every repository behind one connection.
type Store interface {
	Users() UserRepository
	History() HistoryRepository
	Favorites() FavoriteRepository
	Preferences() PreferenceRepository
	Close() error
}
