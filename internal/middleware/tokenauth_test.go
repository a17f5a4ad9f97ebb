package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mockLogger реализует интерфейс logger для тестов
type mockLogger struct {
	requests  int
	responses []int
	infos     []string
}

func (m *mockLogger) Info(msg string) { m.infos = append(m.infos, msg) }
func (m *mockLogger) Infof(format string, args ...any) {
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}
func (m *mockLogger) Error(msg string)                  {}
func (m *mockLogger) Errorf(format string, args ...any) {}
func (m *mockLogger) Debug(msg string)                  {}
func (m *mockLogger) Debugf(format string, args ...any) {}
func (m *mockLogger) RequestLog(method string, path string) {
	m.requests++
}
func (m *mockLogger) ResponseLog(status int, size int, duration time.Duration) {
	m.responses = append(m.responses, status)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("success"))
})

func TestTokenAuthMiddleware_BearerToken(t *testing.T) {
	validToken := "test-api-token-12345"

	handler := NewTokenAuth(TokenAuthConfig{
		APIToken: validToken,
		Logger:   &mockLogger{},
	}).Middleware(okHandler)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"ValidBearerToken", "Bearer " + validToken, http.StatusOK},
		{"InvalidBearerToken", "Bearer wrong-token", http.StatusUnauthorized},
		{"NoAuthHeader", "", http.StatusUnauthorized},
		{"NoBearerPrefix", validToken, http.StatusUnauthorized},
		{"WrongPrefix", "Basic " + validToken, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/generate-qr", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestTokenAuthMiddleware_SkipPaths(t *testing.T) {
	handler := NewTokenAuth(TokenAuthConfig{
		APIToken:     "test-token",
		Logger:       &mockLogger{},
		SkipPrefixes: []string{"/api/status", "/api/admin/", "/ping"},
	}).Middleware(okHandler)

	for _, path := range []string{"/api/status", "/api/admin/login", "/ping"} {
		t.Run("Skip_"+path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusOK, rr.Code, "path %s must not require token", path)
		})
	}

	// Preflight проходит без токена
	req := httptest.NewRequest(http.MethodOptions, "/api/generate-qr", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestTokenAuthMiddleware_Disabled(t *testing.T) {
	handler := NewTokenAuth(TokenAuthConfig{Logger: &mockLogger{}}).Middleware(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/generate-qr", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCORS(t *testing.T) {
	handler := CORS(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/generate-qr", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "success", rr.Body.String())
}
