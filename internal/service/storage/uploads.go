package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/config"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging/codec"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/logger"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/telemetry"
)

// File name prefixes for saved images.
const (
	PrefixStego = "stego"
	PrefixCover = "cover"
)

// ErrInvalidName is returned for names that would escape the upload directory.
var ErrInvalidName = errors.New("invalid file name")

// UploadStore writes result images to the upload directory and keeps it under a size limit.
type UploadStore struct {
	dir      string
	maxBytes int64
	interval time.Duration
	mu       sync.Mutex
	logger   *logger.Logger
	metrics  *telemetry.Metrics
}

// NewUploadStore creates the upload directory if needed. metrics may be nil.
func NewUploadStore(cfg *config.Config, log *logger.Logger, metrics *telemetry.Metrics) (*UploadStore, error) {
	if err := os.MkdirAll(cfg.UploadDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &UploadStore{
		dir:      cfg.UploadDirectory,
		maxBytes: cfg.MaxUploadDirectorySize << 20,
		interval: cfg.PruneInterval(),
		logger:   log,
		metrics:  metrics,
	}, nil
}

// Dir returns the upload directory.
func (s *UploadStore) Dir() string {
	return s.dir
}

// Save encodes p as PNG under a fresh name "<prefix>_<hex>.png" and returns the name.
func (s *UploadStore) Save(prefix string, p *imaging.Pixels) (string, error) {
	id := uuid.New()
	name := fmt.Sprintf("%s_%s.png", prefix, strings.ReplaceAll(id.String(), "-", ""))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := codec.WritePNG(filepath.Join(s.dir, name), p); err != nil {
		return "", fmt.Errorf("failed to save %s image: %w", prefix, err)
	}
	return name, nil
}

// Path resolves a bare file name inside the upload directory.
func (s *UploadStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}

// Run prunes the directory on every interval tick until ctx is done.
func (s *UploadStore) Run(ctx context.Context) {
	if s.interval <= 0 || s.maxBytes <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Prune(); err != nil {
				s.logger.Error("Error pruning uploads: %v", err)
			}
		}
	}
}

// Prune deletes the oldest files until the directory fits the size limit and
// returns how many were removed.
func (s *UploadStore) Prune() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read upload directory: %w", err)
	}

	type file struct {
		path    string
		size    int64
		modTime time.Time
	}
	var files []file
	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, file{filepath.Join(s.dir, entry.Name()), info.Size(), info.ModTime()})
		total += info.Size()
	}
	if total <= s.maxBytes {
		return 0, nil
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].path < files[j].path
		}
		return files[i].modTime.Before(files[j].modTime)
	})

	removed := 0
	for _, f := range files {
		if total <= s.maxBytes {
			break
		}
		if err := os.Remove(f.path); err != nil {
			s.logger.Warning("Could not remove %s: %v", f.path, err)
			continue
		}
		total -= f.size
		removed++
	}

	s.logger.Info("Pruned %d uploads, %d bytes remain", removed, total)
	if s.metrics != nil {
		s.metrics.AddUploadsPruned(removed)
	}
	return removed, nil
}
