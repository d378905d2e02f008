package model

import "time"

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	IsAdmin      bool      `json:"is_admin"`
	APIKey       string    `json:"-"`
}

// Preference holds per-user UI settings.
type Preference struct {
	UserID               int64  `json:"-"`
	Theme                string `json:"theme"`
	NotificationsEnabled bool   `json:"notifications"`
	MaxFileSize          int64  `json:"max_file_size"`
	PreferredImageFormat string `json:"preferred_image_format"`
}

// DefaultPreference is returned for users who never saved settings.
func DefaultPreference(userID int64) Preference {
	return Preference{
		UserID:               userID,
		Theme:                "light",
		NotificationsEnabled: true,
		MaxFileSize:          5 << 20,
		PreferredImageFormat: "png",
	}
}
