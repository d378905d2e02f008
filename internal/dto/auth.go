package dto

import (
	"time"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/model"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ProfileUpdate changes only the fields that are present.
type ProfileUpdate struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UserInfo is the public view of an account.
type UserInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

func NewUserInfo(u *model.User) UserInfo {
	return UserInfo{ID: u.ID, Username: u.Username, Email: u.Email, IsAdmin: u.IsAdmin}
}

type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	User        UserInfo `json:"user"`
}

type Profile struct {
	UserInfo
	CreatedAt time.Time `json:"created_at"`
}
