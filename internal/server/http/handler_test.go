package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, rm repomanager.RepositoryManager, opts ...Option) *Server {
	t.Helper()
	tokens := services.NewTokenService(rm, services.TokenConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, logging.Discard())
	us := services.NewUserService(rm, tokens, password.NewBcrypt(bcrypt.MinCost), logging.Discard())
	return NewServer(":0", logging.Discard(), us, tokens, opts...)
}

func do(t *testing.T, s *Server, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeAuth(t *testing.T, rec *httptest.ResponseRecorder) authResponse {
	t.Helper()
	var out authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func TestPing(t *testing.T) {
	s := newTestServer(t, repomanager.NewMemoryRepositoryManager())

	rec := do(t, s, http.MethodGet, "/ping", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestAliceFlow(t *testing.T) {
	s := newTestServer(t, repomanager.NewMemoryRepositoryManager())

	rec := do(t, s, http.MethodPost, "/auth/signup", gin.H{
		"name": "Alice", "email": "alice@x.com", "password": "GoodPass123!",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	signup := decodeAuth(t, rec)
	assert.True(t, signup.Success)
	assert.NotEmpty(t, signup.ID)
	assert.NotEmpty(t, signup.AccessToken)
	assert.NotEmpty(t, signup.RefreshToken)

	rec = do(t, s, http.MethodPost, "/auth/login", gin.H{"email": "alice@x.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, codeInvalidCredentials, decodeError(t, rec).Code)

	rec = do(t, s, http.MethodPost, "/auth/login", gin.H{"email": "alice@x.com", "password": "GoodPass123!"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	login := decodeAuth(t, rec)
	assert.Equal(t, signup.ID, login.ID)

	rec = do(t, s, http.MethodPost, "/auth/refresh", gin.H{"refreshToken": login.RefreshToken}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	refreshed := decodeAuth(t, rec)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	rec = do(t, s, http.MethodPost, "/auth/refresh", gin.H{"refreshToken": login.RefreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, codeInvalidToken, decodeError(t, rec).Code)

	rec = do(t, s, http.MethodGet, "/auth/me", nil, bearer(refreshed.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"id":"`+signup.ID+`","email":"alice@x.com"}`, rec.Body.String())
}

func TestMe_RequiresAccessToken(t *testing.T) {
	s := newTestServer(t, repomanager.NewMemoryRepositoryManager())

	rec := do(t, s, http.MethodPost, "/auth/signup", gin.H{
		"name": "Alice", "email": "alice@x.com", "password": "GoodPass123!",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pair := decodeAuth(t, rec)

	tests := []struct {
		name   string
		header http.Header
	}{
		{"no header", nil},
		{"not bearer", http.Header{"Authorization": []string{"Basic abc"}}},
		{"garbage", bearer("garbage")},
		{"refresh token", bearer(pair.RefreshToken)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/auth/me", nil, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, codeInvalidToken, decodeError(t, rec).Code)
		})
	}
}

func TestSignup_Validation(t *testing.T) {
	s := newTestServer(t, repomanager.NewMemoryRepositoryManager())

	tests := []struct {
		name string
		body any
	}{
		{"malformed json", `{"name":`},
		{"short name", gin.H{"name": "Al", "email": "a@x.com", "password": "GoodPass123!"}},
		{"long name", gin.H{"name": strings.Repeat("a", 16), "email": "a@x.com", "password": "GoodPass123!"}},
		{"bad email", gin.H{"name": "Alice", "email": "not-an-email", "password": "GoodPass123!"}},
		{"short password", gin.H{"name": "Alice", "email": "a@x.com", "password": "short"}},
		{"missing fields", gin.H{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/auth/signup", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			e := decodeError(t, rec)
			assert.False(t, e.Success)
			assert.Equal(t, codeValidationFailed, e.Code)
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	s := newTestServer(t, repomanager.NewMemoryRepositoryManager())
	body := gin.H{"name": "Alice", "email": "alice@x.com", "password": "GoodPass123!"}

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/auth/signup", body, nil).Code)

	rec := do(t, s, http.MethodPost, "/auth/signup", body, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, codeEmailTaken, decodeError(t, rec).Code)
}

func TestRefresh_RejectsNonJWT(t *testing.T) {
	s := newTestServer(t, repomanager.NewMemoryRepositoryManager())

	rec := do(t, s, http.MethodPost, "/auth/refresh", gin.H{"refreshToken": "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeValidationFailed, decodeError(t, rec).Code)
}

type brokenUsers struct {
	users.Repository
}

func (brokenUsers) GetByEmail(context.Context, string) (*models.Identity, error) {
	return nil, errors.New("pq: connection refused to 10.0.0.5")
}

type brokenManager struct {
	*repomanager.MemoryRepositoryManager
}

func (brokenManager) Users(dbx.DBTX) users.Repository { return brokenUsers{} }

func TestStoreFaultIsOpaque500(t *testing.T) {
	s := newTestServer(t, brokenManager{repomanager.NewMemoryRepositoryManager()})

	rec := do(t, s, http.MethodPost, "/auth/login", gin.H{"email": "alice@x.com", "password": "GoodPass123!"}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, codeInternal, decodeError(t, rec).Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, repomanager.NewMemoryRepositoryManager(), WithCORS([]string{"http://app.example.com"}))

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "http://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := newTestServer(t, repomanager.NewMemoryRepositoryManager())
	s.address = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
