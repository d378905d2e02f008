package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/model"
)

// PreferenceRepository implements repository.PreferenceRepository for SQLite.
type PreferenceRepository struct {
	db *DB
}

func (r *PreferenceRepository) Get(ctx context.Context, userID int64) (*model.Preference, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	p := model.Preference{UserID: userID}
	err := r.db.Conn().QueryRowContext(ctx, `
		SELECT theme, notifications_enabled, max_file_size, preferred_image_format
		FROM user_preferences WHERE user_id = ?
	`, userID).Scan(&p.Theme, &p.NotificationsEnabled, &p.MaxFileSize, &p.PreferredImageFormat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return &p, nil
}

func (r *PreferenceRepository) Upsert(ctx context.Context, p *model.Preference) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, theme, notifications_enabled, max_file_size, preferred_image_format)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			theme = excluded.theme,
			notifications_enabled = excluded.notifications_enabled,
			max_file_size = excluded.max_file_size,
			preferred_image_format = excluded.preferred_image_format
	`, p.UserID, p.Theme, p.NotificationsEnabled, p.MaxFileSize, p.PreferredImageFormat)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", translate(err))
	}
	return nil
}
