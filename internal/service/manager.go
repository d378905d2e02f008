package service

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/config"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging/codec"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/logger"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/model"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/ai"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/storage"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/websocket"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/telemetry"
)

// UploadsPath is the URL prefix under which saved images are served.
const UploadsPath = "/uploads/"

const queueSize = 100

// ErrStopped is returned for requests submitted after Stop.
var ErrStopped = errors.New("processing stopped")

// Engine is the inference surface the manager drives.
type Engine interface {
	Embed(cover *imaging.Pixels, message string) (*ai.EmbedResult, error)
	Extract(img *imaging.Pixels) (*ai.ExtractResult, error)
	Analyze(img *imaging.Pixels) (*ai.Analysis, error)
}

// Manager runs requests through a fixed pool of inference workers and handles
// everything around the engine call: decoding, saving results, history and events.
type Manager struct {
	engine  Engine
	uploads *storage.UploadStore
	hub     *websocket.Hub
	store   repository.Store
	metrics *telemetry.Metrics
	logger  *logger.Logger
	// maxPixels bounds decoded uploads.
	maxPixels int64

	processingQueue chan func()
	quit            chan struct{}
	numWorkers      int
	wg              sync.WaitGroup
	stopOnce        sync.Once
}

// HideResult is an embedding plus the URLs of the saved images.
type HideResult struct {
	*ai.EmbedResult
	StegoImage string
	CoverImage string
}

func NewManager(engine Engine, uploads *storage.UploadStore, hub *websocket.Hub, store repository.Store, metrics *telemetry.Metrics, cfg *config.Config, logger *logger.Logger) *Manager {
	manager := &Manager{
		engine:          engine,
		uploads:         uploads,
		hub:             hub,
		store:           store,
		metrics:         metrics,
		logger:          logger,
		maxPixels:       cfg.MaxImagePixels,
		numWorkers:      max(cfg.ProcessingWorkers, 1),
		processingQueue: make(chan func(), queueSize),
		quit:            make(chan struct{}),
	}

	for i := 0; i < manager.numWorkers; i++ {
		manager.wg.Add(1)
		go manager.processingWorker(i)
	}

	manager.logger.Info("Manager started with %d processing worker(s)", manager.numWorkers)
	return manager
}

func (m *Manager) processingWorker(workerID int) {
	defer m.wg.Done()

	for {
		select {
		case <-m.quit:
			return
		case task := <-m.processingQueue:
			m.metrics.SetQueueDepth(len(m.processingQueue))
			task()
		}
	}
}

// submit queues fn and waits for it. The caller stops waiting as soon as ctx is
// done; a task already picked up by a worker still runs to completion.
func (m *Manager) submit(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	task := func() { done <- fn() }

	select {
	case m.processingQueue <- task:
		m.metrics.SetQueueDepth(len(m.processingQueue))
	case <-m.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-m.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Hide embeds message into the uploaded image and saves the stego and cover PNGs.
func (m *Manager) Hide(ctx context.Context, userID int64, image []byte, message string) (*HideResult, error) {
	const op = "embed"
	cover, err := codec.DecodeLimited(image, m.maxPixels)
	if err != nil {
		m.metrics.RecordOperation(op, err, 0)
		return nil, err
	}

	var res *ai.EmbedResult
	err = m.submit(ctx, func() error {
		start := time.Now()
		var err error
		res, err = m.engine.Embed(cover, message)
		m.metrics.RecordOperation(op, err, time.Since(start))
		return err
	})
	if err != nil {
		m.recordHistory(ctx, userID, model.OperationEncode, "", 0, false)
		return nil, err
	}

	stegoName, err := m.uploads.Save(storage.PrefixStego, res.Stego)
	if err != nil {
		m.logger.Error("Error saving stego image: %v", err)
		m.recordHistory(ctx, userID, model.OperationEncode, "", 0, false)
		return nil, err
	}
	coverName, err := m.uploads.Save(storage.PrefixCover, cover)
	if err != nil {
		m.logger.Error("Error saving cover image: %v", err)
		m.recordHistory(ctx, userID, model.OperationEncode, UploadsPath+stegoName, 0, false)
		return nil, err
	}

	out := &HideResult{
		EmbedResult: res,
		StegoImage:  UploadsPath + stegoName,
		CoverImage:  UploadsPath + coverName,
	}
	m.metrics.RecordEmbedQuality(res.StegoReport.PSNR, res.StegoReport.SSIM, res.StegoReport.BER)
	m.recordHistory(ctx, userID, model.OperationEncode, out.StegoImage, utf8.RuneCountInString(res.Message), true)
	m.hub.Publish(websocket.Event{Type: op, Data: map[string]any{
		"stego_image":   out.StegoImage,
		"stego_metrics": res.StegoReport,
	}})
	return out, nil
}

// Extract reads the hidden message from the uploaded image.
func (m *Manager) Extract(ctx context.Context, userID int64, image []byte) (*ai.ExtractResult, error) {
	const op = "extract"
	img, err := codec.DecodeLimited(image, m.maxPixels)
	if err != nil {
		m.metrics.RecordOperation(op, err, 0)
		return nil, err
	}

	var res *ai.ExtractResult
	err = m.submit(ctx, func() error {
		start := time.Now()
		var err error
		res, err = m.engine.Extract(img)
		m.metrics.RecordOperation(op, err, time.Since(start))
		return err
	})
	if err != nil {
		m.recordHistory(ctx, userID, model.OperationDecode, "", 0, false)
		return nil, err
	}

	m.recordHistory(ctx, userID, model.OperationDecode, "", utf8.RuneCountInString(res.Message), true)
	m.hub.Publish(websocket.Event{Type: op, Data: map[string]any{"message_length": utf8.RuneCountInString(res.Message)}})
	return res, nil
}

// Analyze runs the detector on the uploaded image.
func (m *Manager) Analyze(ctx context.Context, image []byte) (*ai.Analysis, error) {
	const op = "analyze"
	img, err := codec.DecodeLimited(image, m.maxPixels)
	if err != nil {
		m.metrics.RecordOperation(op, err, 0)
		return nil, err
	}

	var res *ai.Analysis
	err = m.submit(ctx, func() error {
		start := time.Now()
		var err error
		res, err = m.engine.Analyze(img)
		m.metrics.RecordOperation(op, err, time.Since(start))
		return err
	})
	if err != nil {
		return nil, err
	}

	m.metrics.RecordVerdict(res.IsStego)
	m.hub.Publish(websocket.Event{Type: op, Data: res.Verdict})
	return res, nil
}

// recordHistory stores an entry for authenticated callers. Failures are logged only.
func (m *Manager) recordHistory(ctx context.Context, userID int64, operation, imagePath string, messageLength int, success bool) {
	if userID <= 0 {
		return
	}
	user, err := m.store.Users().GetByID(ctx, userID)
	if err != nil || user == nil {
		return
	}
	_, err = m.store.History().Insert(ctx, &model.History{
		UserID:        user.ID,
		OperationType: operation,
		ImagePath:     imagePath,
		MessageLength: messageLength,
		Success:       success,
	})
	if err != nil {
		m.logger.Error("Error recording %s history for user %d: %v", operation, userID, err)
	}
}

func (m *Manager) ActivityHub() *websocket.Hub {
	return m.hub
}

func (m *Manager) Uploads() *storage.UploadStore {
	return m.uploads
}

// Stop stops the workers. Queued requests that were not picked up fail with ErrStopped.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.quit)
		m.wg.Wait()
		m.logger.Info("All processing workers stopped")
	})
}
