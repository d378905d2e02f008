package dto

import (
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/quality"
)

// HideResponse is returned by POST /steganography/hide.
type HideResponse struct {
	Success          bool                `json:"success"`
	StegoImage       string              `json:"stego_image"`
	CoverImage       string              `json:"cover_image"`
	Message          string              `json:"message"`
	CoverMetrics     quality.Report      `json:"cover_metrics"`
	StegoMetrics     quality.Report      `json:"stego_metrics"`
	CoverStats       quality.Stats       `json:"cover_stats"`
	StegoStats       quality.Stats       `json:"stego_stats"`
	ModelPerformance quality.Performance `json:"model_performance"`
}

type ExtractResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request. Success is set only by
// endpoints whose success body carries the flag too.
type ErrorResponse struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Health struct {
	Status        string `json:"status"`
	WeightsLoaded bool   `json:"weights_loaded"`
	Checkpoint    string `json:"checkpoint"`
	Parameters    int    `json:"parameters"`
}
