package route

import (
	"net/http"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/auth"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/config"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/handler"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/logger"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/middleware"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/telemetry"
)

// SetupRoutes registers every endpoint and wraps the mux with CORS and request metrics.
func SetupRoutes(manager *service.Manager, store repository.Store, issuer *auth.Issuer, models handler.ModelInfo,
	metrics *telemetry.Metrics, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()
	authn := middleware.NewAuth(issuer, store.Users())
	optional := func(h http.HandlerFunc) http.Handler { return authn.Optional(h) }
	required := func(h http.HandlerFunc) http.Handler { return authn.Require(h) }
	admin := func(h http.HandlerFunc) http.Handler { return authn.Admin(h) }

	// Steganography
	mux.Handle("POST /steganography/hide", optional(handler.HideHandler(manager, cfg, logger)))
	mux.Handle("POST /steganography/extract", optional(handler.ExtractHandler(manager, cfg, logger)))
	mux.HandleFunc("POST /steganalysis/analyze", handler.AnalyzeHandler(manager, cfg, logger))
	mux.HandleFunc("GET /uploads/{filename}", handler.UploadHandler(manager.Uploads()))

	// Auth endpoints
	mux.HandleFunc("POST /auth/register", handler.RegisterHandler(store.Users(), issuer, logger))
	mux.HandleFunc("POST /auth/login", handler.LoginHandler(store.Users(), issuer, logger))
	mux.Handle("GET /auth/profile", required(handler.GetProfileHandler(store.Users(), logger)))
	mux.Handle("PUT /auth/profile", required(handler.UpdateProfileHandler(store.Users(), logger)))

	// API endpoints
	mux.Handle("GET /api/history", required(handler.ListHistoryHandler(store.History(), logger)))
	mux.Handle("DELETE /api/history/{id}", required(handler.DeleteHistoryHandler(store.History(), logger)))
	mux.Handle("GET /api/favorites", required(handler.ListFavoritesHandler(store.Favorites(), logger)))
	mux.Handle("POST /api/favorites", required(handler.AddFavoriteHandler(store.Favorites(), logger)))
	mux.Handle("GET /api/preferences", required(handler.GetPreferencesHandler(store.Preferences(), logger)))
	mux.Handle("PUT /api/preferences", required(handler.UpdatePreferencesHandler(store.Preferences(), logger)))
	mux.Handle("GET /api/stats", required(handler.StatsHandler(store.History(), logger)))
	mux.HandleFunc("GET /api/events", handler.EventsWebsocketHandler(manager, logger))

	// Log endpoints
	mux.Handle("GET /logs/{level}", admin(handler.ShowLogsHandler(logger)))
	mux.Handle("POST /logs/{level}/clear", admin(handler.ClearLogsHandler(logger)))

	mux.HandleFunc("GET /health", handler.HealthHandler(models))
	mux.Handle("GET /metrics", metrics.Handler())

	return middleware.Chain(mux, metrics.Middleware, middleware.CORS(cfg.CORSOrigins))
}
