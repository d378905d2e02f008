package model

import "time"

// Operation types recorded in history.
const (
	OperationEncode  = "encode"
	OperationDecode  = "decode"
	OperationAnalyze = "analyze"
)

// History is one recorded steganography operation.
type History struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"-"`
	OperationType string    `json:"operation_type"`
	ImagePath     string    `json:"image_path"` // empty for operations that store no file
	MessageLength int       `json:"message_length"`
	Timestamp     time.Time `json:"timestamp"`
	Success       bool      `json:"success"`
}

// Favorite is a bookmarked stego image with the message it carries.
type Favorite struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	ImagePath string    `json:"image_path"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats summarises a user's history.
type Stats struct {
	TotalOperations      int       `json:"totalOperations"`
	SuccessfulOperations int       `json:"successfulOperations"`
	SuccessRate          float64   `json:"successRate"`
	RecentOperations     []History `json:"recentOperations"`
}
