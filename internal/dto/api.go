package dto

type FavoriteRequest struct {
	ImagePath string `json:"image_path"`
	Message   string `json:"message"`
}

type FavoriteCreated struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// PreferencesUpdate changes only the fields that are present.
type PreferencesUpdate struct {
	Theme                *string `json:"theme"`
	Notifications        *bool   `json:"notifications"`
	MaxFileSize          *int64  `json:"max_file_size"`
	PreferredImageFormat *string `json:"preferred_image_format"`
}
