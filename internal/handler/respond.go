package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/dto"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging/codec"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/logger"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/ai"
)

const (
	maxJSONBody = 1 << 20
	// statusClientClosed is logged when the caller went away before the result was ready.
	statusClientClosed = 499
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// statusFor maps a processing error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, codec.ErrUndecodable), ai.IsKind(err, ai.KindInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrStopped), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return statusClientClosed
	default:
		return http.StatusInternalServerError
	}
}

// logFailure logs server-side failures; client mistakes are not worth an error line.
func logFailure(log *logger.Logger, op string, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Error("%s failed: %v", op, err)
	} else {
		log.Warning("%s rejected: %v", op, err)
	}
}
