package route

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/auth"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/config"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging/codec"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/logger"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/model"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/quality"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository/sqlite"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/ai"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/storage"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/websocket"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/telemetry"
)

type stubEngine struct{}

func (stubEngine) Embed(cover *imaging.Pixels, message string) (*ai.EmbedResult, error) {
	return &ai.EmbedResult{
		Stego:       imaging.Solid(imaging.ModelSize, imaging.ModelSize, 9, 9, 9),
		Message:     message,
		CoverReport: quality.Report{PSNR: 100, SSIM: 1},
		StegoReport: quality.Report{PSNR: 40, SSIM: 0.95, BER: 0.02},
	}, nil
}

func (stubEngine) Extract(img *imaging.Pixels) (*ai.ExtractResult, error) {
	return &ai.ExtractResult{Message: "hidden"}, nil
}

func (stubEngine) Analyze(img *imaging.Pixels) (*ai.Analysis, error) {
	return &ai.Analysis{Verdict: ai.Verdict{IsStego: false, Confidence: 0.25}}, nil
}

type stubModels struct{}

func (stubModels) Loaded() bool        { return false }
func (stubModels) Source() string      { return "random(seed=1)" }
func (stubModels) ParameterCount() int { return 123 }

type env struct {
	server *httptest.Server
	store  *sqlite.DB
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.UploadDirectory = filepath.Join(dir, "uploads")
	cfg.MaxUploadBytes = 64 << 10
	cfg.ProcessingWorkers = 1

	store, err := sqlite.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log, err := logger.New(logger.Options{Dir: dir, Console: io.Discard})
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	metrics := telemetry.NewMetrics()
	uploads, err := storage.NewUploadStore(cfg, log, metrics)
	require.NoError(t, err)
	hub := websocket.NewHub(log, metrics)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	manager := service.NewManager(stubEngine{}, uploads, hub, store, metrics, cfg, log)
	t.Cleanup(manager.Stop)

	issuer, err := auth.NewIssuer(cfg.JWTSecret, time.Hour)
	require.NoError(t, err)

	srv := httptest.NewServer(SetupRoutes(manager, store, issuer, stubModels{}, metrics, cfg, log))
	t.Cleanup(srv.Close)
	return &env{server: srv, store: store}
}

func (e *env) do(t *testing.T, method, path, token string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *env) json(t *testing.T, method, path, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	resp, data := e.do(t, method, path, token, body, "application/json")
	var out map[string]any
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp, out
}

func (e *env) register(t *testing.T, name string) (string, int64) {
	t.Helper()
	resp, body := e.json(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": name, "email": name + "@example.com", "password": "pw-" + name,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	user := body["user"].(map[string]any)
	return body["access_token"].(string), int64(user["id"].(float64))
}

func multipartBody(t *testing.T, image []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if image != nil {
		part, err := mw.CreateFormFile("image", "cover.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	data, err := codec.EncodePNG(imaging.Solid(32, 32, 10, 200, 90))
	require.NoError(t, err)
	return data
}

// ========================================
// Auth
// ========================================

func TestAuthFlow(t *testing.T) {
	e := newEnv(t)
	token, id := e.register(t, "alice")
	assert.NotEmpty(t, token)
	assert.Positive(t, id)

	resp, body := e.json(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Username already exists", body["error"])

	resp, body = e.json(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "bob", "email": "alice@example.com", "password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email already exists", body["error"])

	resp, body = e.json(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["error"])

	resp, body = e.json(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "pw-alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access_token"])

	resp, body = e.json(t, http.MethodGet, "/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.NotEmpty(t, body["created_at"])
	assert.NotContains(t, body, "password_hash")

	resp, _ = e.json(t, http.MethodPut, "/auth/profile", token, map[string]string{"email": "new@example.com", "password": "changed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = e.json(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "changed"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProfile_RequiresToken(t *testing.T) {
	e := newEnv(t)

	resp, body := e.json(t, http.MethodGet, "/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Missing authorization header", body["error"])

	resp, body = e.json(t, http.MethodGet, "/auth/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid token", body["error"])
}

func TestProfile_EmailTaken(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice")
	token, _ := e.register(t, "bob")

	resp, body := e.json(t, http.MethodPut, "/auth/profile", token, map[string]string{"email": "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email already exists", body["error"])
}

// ========================================
// Steganography
// ========================================

func TestHide_AuthenticatedRecordsHistory(t *testing.T) {
	e := newEnv(t)
	token, id := e.register(t, "alice")

	body, ct := multipartBody(t, pngBytes(t), map[string]string{"message": "hi"})
	resp, data := e.do(t, http.MethodPost, "/steganography/hide", token, body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, true, out["success"])
	for _, key := range []string{"stego_image", "cover_image", "message", "cover_metrics", "stego_metrics", "cover_stats", "stego_stats", "model_performance"} {
		assert.Contains(t, out, key)
	}
	perf := out["model_performance"].(map[string]any)
	assert.Equal(t, 80.0, perf["quality_score"])
	assert.Equal(t, 95.0, perf["similarity_score"])
	assert.Equal(t, 98.0, perf["embedding_accuracy"])

	resp, img := e.do(t, http.MethodGet, out["stego_image"].(string), "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	decoded, err := codec.Decode(img)
	require.NoError(t, err)
	assert.Equal(t, imaging.ModelSize, decoded.Width)

	history, err := e.store.History().ListByUser(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.OperationEncode, history[0].OperationType)
}

func TestHide_BadRequests(t *testing.T) {
	e := newEnv(t)

	body, ct := multipartBody(t, pngBytes(t), nil)
	resp, data := e.do(t, http.MethodPost, "/steganography/hide", "", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"Missing image or message"}`, string(data))

	body, ct = multipartBody(t, nil, map[string]string{"message": "x"})
	resp, _ = e.do(t, http.MethodPost, "/steganography/hide", "", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, ct = multipartBody(t, make([]byte, 80<<10), map[string]string{"message": "x"})
	resp, _ = e.do(t, http.MethodPost, "/steganography/hide", "", body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	body, ct = multipartBody(t, []byte("definitely not a png"), map[string]string{"message": "x"})
	resp, data = e.do(t, http.MethodPost, "/steganography/hide", "", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), `"success":false`)
}

func TestExtractAndAnalyze(t *testing.T) {
	e := newEnv(t)

	body, ct := multipartBody(t, pngBytes(t), nil)
	resp, data := e.do(t, http.MethodPost, "/steganography/extract", "", body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"hidden"}`, string(data))

	body, ct = multipartBody(t, pngBytes(t), nil)
	resp, data = e.do(t, http.MethodPost, "/steganalysis/analyze", "", body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"is_stego":false,"confidence":0.25}`, string(data))

	body, ct = multipartBody(t, nil, nil)
	resp, data = e.do(t, http.MethodPost, "/steganalysis/analyze", "", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Missing image"}`, string(data))
}

func TestUploads_NotFound(t *testing.T) {
	e := newEnv(t)
	resp, _ := e.do(t, http.MethodGet, "/uploads/missing.png", "", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/uploads/.hidden", "", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ========================================
// API
// ========================================

func TestHistory_DeleteOwnership(t *testing.T) {
	e := newEnv(t)
	alice, aliceID := e.register(t, "alice")
	bob, _ := e.register(t, "bob")

	id, err := e.store.History().Insert(context.Background(), &model.History{UserID: aliceID, OperationType: model.OperationDecode, Success: true})
	require.NoError(t, err)

	resp, body := e.json(t, http.MethodDelete, "/api/history/"+strconv.FormatInt(id, 10), bob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", body["error"])

	resp, _ = e.json(t, http.MethodDelete, "/api/history/abc", alice, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data := e.do(t, http.MethodGet, "/api/history", alice, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Len(t, list, 1)

	resp, body = e.json(t, http.MethodDelete, "/api/history/"+strconv.FormatInt(id, 10), alice, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Deleted", body["message"])
}

func TestFavoritesPreferencesStats(t *testing.T) {
	e := newEnv(t)
	token, _ := e.register(t, "alice")

	resp, body := e.json(t, http.MethodPost, "/api/favorites", token, map[string]string{"image_path": "/uploads/a.png", "message": "m"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Favorite added", body["message"])

	resp, data := e.do(t, http.MethodGet, "/api/favorites", token, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"image_path":"/uploads/a.png"`)

	resp, body = e.json(t, http.MethodGet, "/api/preferences", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "light", body["theme"])
	assert.Equal(t, true, body["notifications"])

	resp, _ = e.json(t, http.MethodPut, "/api/preferences", token, map[string]any{"theme": "dark", "notifications": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, body = e.json(t, http.MethodGet, "/api/preferences", token, nil)
	assert.Equal(t, "dark", body["theme"])
	assert.Equal(t, false, body["notifications"])

	body2, ct := multipartBody(t, pngBytes(t), nil)
	resp, _ = e.do(t, http.MethodPost, "/steganography/extract", token, body2, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = e.json(t, http.MethodGet, "/api/stats", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, body["totalOperations"])
	assert.Equal(t, 100.0, body["successRate"])
	assert.Len(t, body["recentOperations"], 1)
}

// ========================================
// Operations surface
// ========================================

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t)

	resp, body := e.json(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["weights_loaded"])
	assert.Equal(t, "random(seed=1)", body["checkpoint"])

	resp, data := e.do(t, http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `stegano_http_requests_total{endpoint="GET /health",method="GET",status_code="200"} 1`)
}

func TestLogs_AdminOnly(t *testing.T) {
	e := newEnv(t)
	token, _ := e.register(t, "alice")

	resp, _ := e.do(t, http.MethodGet, "/logs/info", token, nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/logs/info", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t)
	req, err := http.NewRequest(http.MethodOptions, e.server.URL+"/steganography/hide", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "POST"))
}
