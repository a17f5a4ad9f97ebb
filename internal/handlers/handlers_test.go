package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPunder/qr-generator/internal/auth"
	"github.com/MrPunder/qr-generator/internal/config"
	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/MrPunder/qr-generator/internal/qrcode"
	"github.com/MrPunder/qr-generator/internal/render"
	"github.com/MrPunder/qr-generator/internal/storage"
)

// MockLogger реализует интерфейс logger.Logger для тестирования
type MockLogger struct{}

func (m *MockLogger) Info(msg string)                   {}
func (m *MockLogger) Infof(format string, args ...any)  {}
func (m *MockLogger) Error(msg string)                  {}
func (m *MockLogger) Errorf(format string, args ...any) {}
func (m *MockLogger) Debug(msg string)                  {}
func (m *MockLogger) Debugf(format string, args ...any) {}

type failingGenerator struct{}

func (failingGenerator) Generate(req models.EncodeRequest) (*render.Image, error) {
	return nil, errors.New("encoder exploded")
}

func defaults() config.QRConfig {
	return config.Default().QR
}

func setupTest(t *testing.T) (http.Handler, *storage.Memstorage) {
	store := storage.NewMemstorage(models.DefaultHistoryLimit)
	h := NewHandler(&MockLogger{}, store, qrcode.NewService(qrcode.BarcodeEncoder{}), defaults())
	return NewRouter(h), store
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestPingHandler(t *testing.T) {
	router, _ := setupTest(t)

	rr := do(t, router, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())
}

func TestGenerateQRHandler_PNG(t *testing.T) {
	router, _ := setupTest(t)

	rr := do(t, router, http.MethodPost, "/api/generate-qr", models.GenerateQRRequest{
		Data: "https://github.com",
		Options: models.QROptions{
			Width: 300,
			Color: models.QRColors{Dark: "#1a365d", Light: "#ffffff"},
		},
	})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))

	img, err := png.Decode(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestGenerateQRHandler_Defaults(t *testing.T) {
	router, _ := setupTest(t)

	rr := do(t, router, http.MethodPost, "/api/generate-qr", map[string]string{"data": "hello"})
	require.Equal(t, http.StatusOK, rr.Code)

	img, err := png.Decode(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
}

func TestGenerateQRHandler_Formats(t *testing.T) {
	router, _ := setupTest(t)

	tests := []struct {
		name        string
		typ         string
		contentType string
	}{
		{"mime png", "image/png", "image/png"},
		{"svg", "svg", "image/svg+xml"},
		{"data url", "dataurl", "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, router, http.MethodPost, "/api/generate-qr", models.GenerateQRRequest{
				Data:    "format test",
				Options: models.QROptions{Type: tt.typ},
			})
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.contentType, rr.Header().Get("Content-Type"))
		})
	}
}

func TestGenerateQRHandler_DataURL(t *testing.T) {
	router, _ := setupTest(t)

	rr := do(t, router, http.MethodPost, "/api/generate-qr", models.GenerateQRRequest{
		Data:    "data url",
		Options: models.QROptions{Type: "dataurl"},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.DataURLResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.QRCode, "data:image/png;base64,"))
}

func TestGenerateQRHandler_BadRequests(t *testing.T) {
	router, _ := setupTest(t)

	tests := []struct {
		name string
		body any
	}{
		{"empty object", map[string]any{}},
		{"broken json", "{"},
		{"negative width", models.GenerateQRRequest{Data: "x", Options: models.QROptions{Width: -1}}},
		{"huge width", models.GenerateQRRequest{Data: "x", Options: models.QROptions{Width: MaxSize + 1}}},
		{"bad color", models.GenerateQRRequest{Data: "x", Options: models.QROptions{Color: models.QRColors{Dark: "#zzz"}}}},
		{"bad level", models.GenerateQRRequest{Data: "x", Options: models.QROptions{ErrorCorrectionLevel: "X"}}},
		{"bad type", models.GenerateQRRequest{Data: "x", Options: models.QROptions{Type: "image/gif"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, router, http.MethodPost, "/api/generate-qr", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.NotEmpty(t, errorMessage(t, rr))
		})
	}
}

func TestGenerateQRHandler_EncoderFailure(t *testing.T) {
	h := NewHandler(&MockLogger{}, storage.NewMemstorage(10), failingGenerator{}, defaults())
	router := NewRouter(h)

	rr := do(t, router, http.MethodPost, "/api/generate-qr", map[string]string{"data": "x"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", errorMessage(t, rr))
}

func TestGenerateSVGHandler(t *testing.T) {
	router, _ := setupTest(t)

	rr := do(t, router, http.MethodPost, "/api/generate-qr-svg", models.GenerateQRRequest{
		Data: "Olá, mundo!",
		Options: models.QROptions{
			Width: 250,
			Color: models.QRColors{Dark: "#2d3748", Light: "#f7fafc"},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/svg+xml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `width="250"`)
	assert.Contains(t, rr.Body.String(), "#2d3748")
}

func TestLegacyGenerateHandler(t *testing.T) {
	router, _ := setupTest(t)

	rr := do(t, router, http.MethodPost, "/generate-qr", models.LegacyQRRequest{
		Text: "legacy", Size: 150, Dark: "#000000", Light: "#ffffff",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.DataURLResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.QRCode, "data:image/png;base64,"))

	rr = do(t, router, http.MethodPost, "/generate-qr", models.LegacyQRRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFallbackQRHandler(t *testing.T) {
	router, _ := setupTest(t)

	rr := do(t, router, http.MethodPost, "/api/fallback-qr", models.GenerateQRRequest{
		Data:    "https://example.com",
		Options: models.QROptions{Width: 200},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "true", rr.Header().Get(FallbackHeader))

	img, err := png.Decode(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	// угол узора всегда закрашен цветом переднего плана
	r, g, b, _ := img.At(4, 4).RGBA()
	assert.Zero(t, r+g+b)
}

func TestValidateURLHandler(t *testing.T) {
	router, _ := setupTest(t)

	tests := []struct {
		name   string
		url    string
		status int
		valid  bool
	}{
		{"valid", "https://www.google.com", http.StatusOK, true},
		{"mailto", "mailto:user@example.com", http.StatusOK, true},
		{"no scheme", "url-invalida", http.StatusOK, false},
		{"empty", "", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, router, http.MethodPost, "/api/validate-url", models.ValidateURLRequest{URL: tt.url})
			require.Equal(t, tt.status, rr.Code)

			var resp models.ValidateURLResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.valid, resp.Valid)
			if !tt.valid {
				assert.NotEmpty(t, resp.Error)
			}
		})
	}
}

func TestGenerateVCardHandler(t *testing.T) {
	router, _ := setupTest(t)

	rr := do(t, router, http.MethodPost, "/api/generate-vcard", models.VCard{
		Name:         "João da Silva",
		Phone:        "+55 11 99999-9999",
		Email:        "joao@exemplo.com",
		Organization: "Empresa ABC",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.VCardResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "BEGIN:VCARD\nVERSION:3.0\nFN:João da Silva\nORG:Empresa ABC\nTEL:+55 11 99999-9999\nEMAIL:joao@exemplo.com\nEND:VCARD", resp.VCard)

	rr = do(t, router, http.MethodPost, "/api/generate-vcard", models.VCard{Phone: "123"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "name is required", errorMessage(t, rr))
}

func TestStatusHandler(t *testing.T) {
	router, _ := setupTest(t)

	rr := do(t, router, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, Version, resp.Version)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	router, _ := setupTest(t)

	rr := do(t, router, http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "endpoint not found", errorMessage(t, rr))

	rr = do(t, router, http.MethodGet, "/api/generate-qr", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHistoryHandlers(t *testing.T) {
	router, store := setupTest(t)

	rr := do(t, router, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	var first models.HistoryEntry
	for i := 0; i < 12; i++ {
		rr = do(t, router, http.MethodPost, "/api/history", models.HistoryRequest{
			Text:    "entry " + string(rune('a'+i)),
			Size:    200,
			BgColor: "#ffffff",
			FgColor: "#000000",
		})
		require.Equal(t, http.StatusCreated, rr.Code)
		if i == 11 {
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &first))
		}
	}

	rr = do(t, router, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var entries []models.HistoryEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, models.DefaultHistoryLimit)
	assert.Equal(t, "entry l", entries[0].Text)
	assert.Equal(t, "entry c", entries[9].Text)

	rr = do(t, router, http.MethodGet, "/api/history/"+first.Id.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/history/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/history/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/history", models.HistoryRequest{Size: 100})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// без администратора очистка запрещена
	rr = do(t, router, http.MethodDelete, "/api/history", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	history, err := store.GetHistory(context.Background(), models.SharedOwner)
	require.NoError(t, err)
	assert.Len(t, history, models.DefaultHistoryLimit)
}

func TestHistoryHandlers_HidesChatEntries(t *testing.T) {
	router, store := setupTest(t)

	private := models.NewHistoryEntry(models.EncodeRequest{Payload: "chat secret", Size: 100})
	private.Owner = "tg:7"
	require.NoError(t, store.AddEntry(context.Background(), private))

	rr := do(t, router, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	rr = do(t, router, http.MethodGet, "/api/history/"+private.Id.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotContains(t, rr.Body.String(), "chat secret")
}

func TestAdminLoginAndClearHistory(t *testing.T) {
	store := storage.NewMemstorage(models.DefaultHistoryLimit)
	pm := auth.NewPasswordManager(t.TempDir())
	jm := auth.NewJWTManager("test-secret")
	h := NewHandler(&MockLogger{}, store, qrcode.NewService(qrcode.BarcodeEncoder{}), defaults()).WithAdmin(pm, jm)
	router := NewRouter(h)

	// пароль еще не задан
	rr := do(t, router, http.MethodPost, "/api/admin/login", models.LoginRequest{Password: "whatever1"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	require.NoError(t, pm.SetPassword("supersecret"))

	rr = do(t, router, http.MethodPost, "/api/admin/login", models.LoginRequest{Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/admin/login", models.LoginRequest{Password: "supersecret"})
	require.Equal(t, http.StatusOK, rr.Code)

	var login models.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "admin_token", cookies[0].Name)
	assert.Equal(t, login.Token, cookies[0].Value)

	require.NoError(t, store.AddEntry(context.Background(), models.NewHistoryEntry(models.EncodeRequest{Payload: "x", Size: 10})))

	rr = do(t, router, http.MethodDelete, "/api/history", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/history", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	history, err := store.GetHistory(context.Background(), models.SharedOwner)
	require.NoError(t, err)
	assert.Empty(t, history)
}
