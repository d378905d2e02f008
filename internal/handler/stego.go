package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/config"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/dto"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/logger"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/middleware"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service"
)

// multipartOverhead leaves room for the other form fields and boundaries.
const multipartOverhead = 1 << 20

var errMissingImage = errors.New("missing image")

type uploadError struct {
	status  int
	message string
}

func (e *uploadError) Error() string { return e.message }

// readUpload returns the bytes of the "image" form file.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &uploadError{http.StatusRequestEntityTooLarge, fmt.Sprintf("Image exceeds %d bytes", maxBytes)}
		}
		return nil, errMissingImage
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, errMissingImage
	}
	defer file.Close()
	if header.Size > maxBytes {
		return nil, &uploadError{http.StatusRequestEntityTooLarge, fmt.Sprintf("Image exceeds %d bytes", maxBytes)}
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, &uploadError{http.StatusBadRequest, "Could not read image"}
	}
	if int64(len(data)) > maxBytes {
		return nil, &uploadError{http.StatusRequestEntityTooLarge, fmt.Sprintf("Image exceeds %d bytes", maxBytes)}
	}
	return data, nil
}

func uploadStatus(err error) (int, string) {
	var ue *uploadError
	if errors.As(err, &ue) {
		return ue.status, ue.message
	}
	return http.StatusBadRequest, "Missing image"
}

func currentUser(r *http.Request) int64 {
	id, _ := middleware.UserID(r.Context())
	return id
}

// HideHandler handles POST /steganography/hide.
func HideHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		failed := false
		image, err := readUpload(w, r, cfg.MaxUploadBytes)
		hasMessage := false
		if r.MultipartForm != nil {
			_, hasMessage = r.MultipartForm.Value["message"]
		}
		if errors.Is(err, errMissingImage) || (err == nil && !hasMessage) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Success: &failed, Error: "Missing image or message"})
			return
		}
		if err != nil {
			status, message := uploadStatus(err)
			writeJSON(w, status, dto.ErrorResponse{Success: &failed, Error: message})
			return
		}

		res, err := manager.Hide(r.Context(), currentUser(r), image, r.FormValue("message"))
		if err != nil {
			status := statusFor(err)
			logFailure(logger, "hide", status, err)
			writeJSON(w, status, dto.ErrorResponse{Success: &failed, Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, dto.HideResponse{
			Success:          true,
			StegoImage:       res.StegoImage,
			CoverImage:       res.CoverImage,
			Message:          res.Message,
			CoverMetrics:     res.CoverReport,
			StegoMetrics:     res.StegoReport,
			CoverStats:       res.CoverStats,
			StegoStats:       res.StegoStats,
			ModelPerformance: res.Performance(),
		})
	}
}

// ExtractHandler handles POST /steganography/extract.
func ExtractHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		image, err := readUpload(w, r, cfg.MaxUploadBytes)
		if err != nil {
			status, message := uploadStatus(err)
			writeError(w, status, message)
			return
		}

		res, err := manager.Extract(r.Context(), currentUser(r), image)
		if err != nil {
			status := statusFor(err)
			logFailure(logger, "extract", status, err)
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, dto.ExtractResponse{Message: res.Message})
	}
}

// AnalyzeHandler handles POST /steganalysis/analyze.
func AnalyzeHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		image, err := readUpload(w, r, cfg.MaxUploadBytes)
		if err != nil {
			status, message := uploadStatus(err)
			writeError(w, status, message)
			return
		}

		res, err := manager.Analyze(r.Context(), image)
		if err != nil {
			status := statusFor(err)
			logFailure(logger, "analyze", status, err)
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, res.Verdict)
	}
}
