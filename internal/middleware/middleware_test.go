package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/auth"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/model"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository/sqlite"
)

func newAuth(t *testing.T) (*Auth, *auth.Issuer, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	issuer, err := auth.NewIssuer("secret", time.Hour)
	require.NoError(t, err)
	return NewAuth(issuer, db.Users()), issuer, db
}

// echoUser writes the user id from the context, or -1.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := UserID(r.Context())
	if !ok {
		id = -1
	}
	json.NewEncoder(w).Encode(map[string]int64{"user": id})
})

func call(h http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestRequire(t *testing.T) {
	a, issuer, _ := newAuth(t)
	h := a.Require(echoUser)

	token, err := issuer.Issue(5)
	require.NoError(t, err)
	other, _ := auth.NewIssuer("other", time.Hour)
	forged, _ := other.Issue(5)

	rec := call(h, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":5}`, rec.Body.String())

	rec = call(h, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgMissingHeader, errorOf(t, rec))

	rec = call(h, "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgMissingHeader, errorOf(t, rec))

	rec = call(h, "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgInvalidToken, errorOf(t, rec))
}

func TestRequire_Expired(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a token to expire")
	}
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	issuer, err := auth.NewIssuer("secret", time.Second)
	require.NoError(t, err)
	token, err := issuer.Issue(1)
	require.NoError(t, err)
	time.Sleep(2100 * time.Millisecond)

	rec := call(NewAuth(issuer, db.Users()).Require(echoUser), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgTokenExpired, errorOf(t, rec))
}

func TestOptional(t *testing.T) {
	a, issuer, _ := newAuth(t)
	h := a.Optional(echoUser)
	token, _ := issuer.Issue(9)

	assert.JSONEq(t, `{"user":9}`, call(h, "Bearer "+token).Body.String())
	assert.JSONEq(t, `{"user":-1}`, call(h, "").Body.String())
	assert.JSONEq(t, `{"user":-1}`, call(h, "Bearer garbage").Body.String())
}

func TestAdmin(t *testing.T) {
	a, issuer, db := newAuth(t)
	ctx := context.Background()
	plainID, err := db.Users().Create(ctx, &model.User{Username: "u", Email: "u@x", PasswordHash: "h"})
	require.NoError(t, err)
	adminID, err := db.Users().Create(ctx, &model.User{Username: "a", Email: "a@x", PasswordHash: "h", IsAdmin: true})
	require.NoError(t, err)

	h := a.Admin(echoUser)
	plain, _ := issuer.Issue(plainID)
	admin, _ := issuer.Issue(adminID)

	rec := call(h, "Bearer "+plain)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, MsgAdminRequired, errorOf(t, rec))

	rec = call(h, "Bearer "+admin)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, call(h, "").Code)
}

// ========================================
// CORS
// ========================================

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	t.Run("wildcard", func(t *testing.T) {
		h := CORS([]string{"*"})(ok)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://app.test")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		h := CORS([]string{" http://app.test "})(ok)
		req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
		req.Header.Set("Origin", "http://app.test")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("foreign origin", func(t *testing.T) {
		h := CORS([]string{"http://app.test"})(ok)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.test")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b"}, order)
}
