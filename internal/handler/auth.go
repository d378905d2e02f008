package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/auth"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/dto"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/logger"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/model"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository"
)

// RegisterHandler handles POST /auth/register.
func RegisterHandler(users repository.UserRepository, issuer *auth.Issuer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.RegisterRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)
		if req.Username == "" || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Username, email and password are required")
			return
		}

		ctx := r.Context()
		if existing, err := users.GetByUsername(ctx, req.Username); err != nil {
			internalError(w, logger, "register", err)
			return
		} else if existing != nil {
			writeError(w, http.StatusBadRequest, "Username already exists")
			return
		}
		if existing, err := users.GetByEmail(ctx, req.Email); err != nil {
			internalError(w, logger, "register", err)
			return
		} else if existing != nil {
			writeError(w, http.StatusBadRequest, "Email already exists")
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			internalError(w, logger, "register", err)
			return
		}
		apiKey, err := auth.NewAPIKey()
		if err != nil {
			internalError(w, logger, "register", err)
			return
		}

		user := &model.User{Username: req.Username, Email: req.Email, PasswordHash: hash, APIKey: apiKey}
		if _, err := users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				writeError(w, http.StatusBadRequest, "Username or email already exists")
				return
			}
			internalError(w, logger, "register", err)
			return
		}

		token, err := issuer.Issue(user.ID)
		if err != nil {
			internalError(w, logger, "register", err)
			return
		}
		logger.Info("Registered user %s (id %d)", user.Username, user.ID)
		writeJSON(w, http.StatusCreated, dto.AuthResponse{AccessToken: token, User: dto.NewUserInfo(user)})
	}
}

// LoginHandler handles POST /auth/login.
func LoginHandler(users repository.UserRepository, issuer *auth.Issuer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		user, err := users.GetByUsername(r.Context(), req.Username)
		if err != nil {
			internalError(w, logger, "login", err)
			return
		}
		if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
			logger.Warning("Failed login for %q", req.Username)
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		token, err := issuer.Issue(user.ID)
		if err != nil {
			internalError(w, logger, "login", err)
			return
		}
		writeJSON(w, http.StatusOK, dto.AuthResponse{AccessToken: token, User: dto.NewUserInfo(user)})
	}
}

// GetProfileHandler handles GET /auth/profile.
func GetProfileHandler(users repository.UserRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := loadUser(w, r, users, logger)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, dto.Profile{UserInfo: dto.NewUserInfo(user), CreatedAt: user.CreatedAt})
	}
}

// UpdateProfileHandler handles PUT /auth/profile.
func UpdateProfileHandler(users repository.UserRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := loadUser(w, r, users, logger)
		if !ok {
			return
		}
		var req dto.ProfileUpdate
		if !decodeJSON(w, r, &req) {
			return
		}

		if req.Email != nil {
			email := strings.TrimSpace(*req.Email)
			if email == "" {
				writeError(w, http.StatusBadRequest, "Email cannot be empty")
				return
			}
			existing, err := users.GetByEmail(r.Context(), email)
			if err != nil {
				internalError(w, logger, "update profile", err)
				return
			}
			if existing != nil && existing.ID != user.ID {
				writeError(w, http.StatusBadRequest, "Email already exists")
				return
			}
			user.Email = email
		}
		if req.Password != nil {
			if *req.Password == "" {
				writeError(w, http.StatusBadRequest, "Password cannot be empty")
				return
			}
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				internalError(w, logger, "update profile", err)
				return
			}
			user.PasswordHash = hash
		}

		if err := users.Update(r.Context(), user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				writeError(w, http.StatusBadRequest, "Email already exists")
				return
			}
			internalError(w, logger, "update profile", err)
			return
		}
		writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Profile updated successfully"})
	}
}

// loadUser fetches the authenticated user and writes the failure response itself.
func loadUser(w http.ResponseWriter, r *http.Request, users repository.UserRepository, logger *logger.Logger) (*model.User, bool) {
	user, err := users.GetByID(r.Context(), currentUser(r))
	if err != nil {
		internalError(w, logger, "load user", err)
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return nil, false
	}
	return user, true
}

func internalError(w http.ResponseWriter, logger *logger.Logger, op string, err error) {
	logger.Error("%s failed: %v", op, err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
