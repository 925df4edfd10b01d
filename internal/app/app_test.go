package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/config"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/keys"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()

	key, err := keys.GenerateRSA("app-key", time.Now())
	require.NoError(t, err)
	privPEM, err := keys.EncodePrivateKeyPEM(key.Private)
	require.NoError(t, err)

	return config.Config{
		AppPort:          "0",
		ShutdownTimeout:  time.Second,
		StoreDriver:      config.DriverMemory,
		Issuer:           "https://auth.example.com",
		Audience:         "clash-of-myths",
		KeyID:            key.ID,
		PrivateKeyBase64: base64.StdEncoding.EncodeToString(privPEM),
		KeyRetention:     time.Hour,
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func do(t *testing.T, h http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegisterThenCallProtectedRoute(t *testing.T) {
	a := newTestApp(t)
	h := a.Handler()

	rec := do(t, h, http.MethodPost, "/auth/register",
		`{"email":"Player@Example.com","password":"correct horse"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, 900, tok.ExpiresIn)

	rec = do(t, h, http.MethodGet, "/api/me", "", tok.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var me map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.NotEmpty(t, me["sub"])
	assert.Equal(t, "player@example.com", me["email"])
}

func TestLoginWithWrongPassword(t *testing.T) {
	a := newTestApp(t)
	h := a.Handler()

	rec := do(t, h, http.MethodPost, "/auth/register",
		`{"email":"a@example.com","password":"correct horse"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/auth/login",
		`{"email":"a@example.com","password":"wrong horse"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	a := newTestApp(t)

	rec := do(t, a.Handler(), http.MethodGet, "/api/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnconfiguredProviderIsRejected(t *testing.T) {
	a := newTestApp(t)

	rec := do(t, a.Handler(), http.MethodPost, "/auth/google", `{"token":"x"}`, "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestPublicEndpoints(t *testing.T) {
	a := newTestApp(t)
	h := a.Handler()

	rec := do(t, h, http.MethodGet, "/.well-known/jwks.json", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kid":"app-key"`)

	rec = do(t, h, http.MethodGet, "/.well-known/openid-configuration", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"issuer":"https://auth.example.com"`)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "", "").Code)

	rec = do(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "signing_keys")
}

func TestReloadKeysKeepsServing(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.ReloadKeys(context.Background()))
	assert.NoError(t, a.WatchKeys(context.Background()))
	assert.Equal(t, 1, a.infra.Keys.Len())
}
