package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/model"
)

// HistoryRepository implements repository.HistoryRepository for SQLite.
type HistoryRepository struct {
	db *DB
}

// Insert records an operation.
func (r *HistoryRepository) Insert(ctx context.Context, h *model.History) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now().UTC()
	}
	result, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO processing_history (user_id, operation_type, image_path, message_length, timestamp, success)
		VALUES (?, ?, ?, ?, ?, ?)
	`, h.UserID, h.OperationType, nullString(h.ImagePath), h.MessageLength, h.Timestamp, h.Success)
	if err != nil {
		return 0, fmt.Errorf("failed to insert history: %w", translate(err))
	}
	h.ID, err = result.LastInsertId()
	return h.ID, err
}

// ListByUser returns a user's operations, newest first.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID int64) ([]model.History, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT id, user_id, operation_type, image_path, message_length, timestamp, success
		FROM processing_history WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	history := []model.History{}
	for rows.Next() {
		var h model.History
		var path sql.NullString
		if err := rows.Scan(&h.ID, &h.UserID, &h.OperationType, &path, &h.MessageLength, &h.Timestamp, &h.Success); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		h.ImagePath = path.String
		history = append(history, h)
	}
	return history, rows.Err()
}

// Delete removes one of the user's history entries.
func (r *HistoryRepository) Delete(ctx context.Context, id, userID int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().ExecContext(ctx, `DELETE FROM processing_history WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return requireRow(result)
}
