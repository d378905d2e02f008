package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/dto"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/logger"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/model"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository"
)

// ListHistoryHandler handles GET /api/history.
func ListHistoryHandler(history repository.HistoryRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := history.ListByUser(r.Context(), currentUser(r))
		if err != nil {
			internalError(w, logger, "list history", err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// DeleteHistoryHandler handles DELETE /api/history/{id}.
func DeleteHistoryHandler(history repository.HistoryRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		err = history.Delete(r.Context(), id, currentUser(r))
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		if err != nil {
			internalError(w, logger, "delete history", err)
			return
		}
		writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Deleted"})
	}
}

// ListFavoritesHandler handles GET /api/favorites.
func ListFavoritesHandler(favorites repository.FavoriteRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := favorites.ListByUser(r.Context(), currentUser(r))
		if err != nil {
			internalError(w, logger, "list favorites", err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// AddFavoriteHandler handles POST /api/favorites.
func AddFavoriteHandler(favorites repository.FavoriteRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.FavoriteRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		f := &model.Favorite{UserID: currentUser(r), ImagePath: req.ImagePath, Message: req.Message}
		id, err := favorites.Insert(r.Context(), f)
		if err != nil {
			internalError(w, logger, "add favorite", err)
			return
		}
		writeJSON(w, http.StatusCreated, dto.FavoriteCreated{ID: id, Message: "Favorite added"})
	}
}

// GetPreferencesHandler handles GET /api/preferences.
func GetPreferencesHandler(prefs repository.PreferenceRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUser(r)
		p, err := prefs.Get(r.Context(), userID)
		if err != nil {
			internalError(w, logger, "get preferences", err)
			return
		}
		if p == nil {
			def := model.DefaultPreference(userID)
			p = &def
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// UpdatePreferencesHandler handles PUT /api/preferences.
func UpdatePreferencesHandler(prefs repository.PreferenceRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.PreferencesUpdate
		if !decodeJSON(w, r, &req) {
			return
		}

		userID := currentUser(r)
		p, err := prefs.Get(r.Context(), userID)
		if err != nil {
			internalError(w, logger, "update preferences", err)
			return
		}
		if p == nil {
			def := model.DefaultPreference(userID)
			p = &def
		}
		if req.Theme != nil {
			p.Theme = *req.Theme
		}
		if req.Notifications != nil {
			p.NotificationsEnabled = *req.Notifications
		}
		if req.MaxFileSize != nil {
			if *req.MaxFileSize <= 0 {
				writeError(w, http.StatusBadRequest, "max_file_size must be positive")
				return
			}
			p.MaxFileSize = *req.MaxFileSize
		}
		if req.PreferredImageFormat != nil {
			p.PreferredImageFormat = *req.PreferredImageFormat
		}

		if err := prefs.Upsert(r.Context(), p); err != nil {
			internalError(w, logger, "update preferences", err)
			return
		}
		writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Preferences updated"})
	}
}

// StatsHandler handles GET /api/stats.
func StatsHandler(history repository.HistoryRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := history.ListByUser(r.Context(), currentUser(r))
		if err != nil {
			internalError(w, logger, "stats", err)
			return
		}
		writeJSON(w, http.StatusOK, model.NewStats(entries))
	}
}
