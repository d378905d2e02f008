package handler

import (
	"net/http"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/dto"
)

// ModelInfo describes the loaded weights.
type ModelInfo interface {
	Loaded() bool
	Source() string
	ParameterCount() int
}

// HealthHandler reports whether the server is up and which weights it runs on.
func HealthHandler(models ModelInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dto.Health{
			Status:        "ok",
			WeightsLoaded: models.Loaded(),
			Checkpoint:    models.Source(),
			Parameters:    models.ParameterCount(),
		})
	}
}
