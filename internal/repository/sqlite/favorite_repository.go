package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/model"
)

// FavoriteRepository implements repository.FavoriteRepository for SQLite.
type FavoriteRepository struct {
	db *DB
}

func (r *FavoriteRepository) Insert(ctx context.Context, f *model.Favorite) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	result, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO favorites (user_id, image_path, message, created_at) VALUES (?, ?, ?, ?)
	`, f.UserID, nullString(f.ImagePath), f.Message, f.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert favorite: %w", translate(err))
	}
	f.ID, err = result.LastInsertId()
	return f.ID, err
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID int64) ([]model.Favorite, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT id, user_id, image_path, message, created_at FROM favorites WHERE user_id = ? ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []model.Favorite{}
	for rows.Next() {
		var f model.Favorite
		var path sql.NullString
		if err := rows.Scan(&f.ID, &f.UserID, &path, &f.Message, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		f.ImagePath = path.String
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}
