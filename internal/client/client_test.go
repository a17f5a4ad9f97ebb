package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPunder/qr-generator/internal/fallback"
	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/MrPunder/qr-generator/internal/render"
)

type mockLogger struct {
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string)                   { m.infos = append(m.infos, msg) }
func (m *mockLogger) Infof(format string, args ...any)  { m.infos = append(m.infos, format) }
func (m *mockLogger) Error(msg string)                  { m.errors = append(m.errors, msg) }
func (m *mockLogger) Errorf(format string, args ...any) { m.errors = append(m.errors, format) }
func (m *mockLogger) Debug(msg string)                  {}
func (m *mockLogger) Debugf(format string, args ...any) {}

type failingRemote struct {
	calls int
}

func (f *failingRemote) GenerateQR(ctx context.Context, req models.EncodeRequest) (*render.Image, error) {
	f.calls++
	return nil, ErrServiceUnavailable
}

type okRemote struct{}

func (okRemote) GenerateQR(ctx context.Context, req models.EncodeRequest) (*render.Image, error) {
	return &render.Image{Data: []byte("real"), ContentType: render.MimePNG, Format: models.FormatPNG}, nil
}

func request(payload string, size int) models.EncodeRequest {
	return models.EncodeRequest{
		Payload:    payload,
		Size:       size,
		Margin:     2,
		Foreground: models.Black,
		Background: models.White,
	}
}

func TestAPIClient_GenerateQR(t *testing.T) {
	var got models.GenerateQRRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate-qr", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL+"/", "token", 0, &mockLogger{})
	img, err := c.GenerateQR(context.Background(), request("https://example.com", 300))
	require.NoError(t, err)

	assert.Equal(t, []byte("png-bytes"), img.Data)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "https://example.com", got.Data)
	assert.Equal(t, 300, got.Options.Width)
	assert.Equal(t, "#000000", got.Options.Color.Dark)
	assert.Equal(t, "#ffffff", got.Options.Color.Light)
	require.NotNil(t, got.Options.Margin)
	assert.Equal(t, 2, *got.Options.Margin)
}

func TestAPIClient_GenerateQR_Gzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gzip", r.Header.Get("Accept-Encoding"))
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("<svg/>"))
		gz.Close()
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", 0, &mockLogger{})
	req := request("x", 100)
	req.Format = models.FormatSVG
	img, err := c.GenerateQR(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(img.Data))
	assert.Equal(t, models.FormatSVG, img.Format)
}

func TestAPIClient_GenerateQR_DataURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.DataURLResponse{QRCode: "data:image/png;base64,AAAA"})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", 0, &mockLogger{})
	req := request("x", 100)
	req.Format = models.FormatDataURL
	img, err := c.GenerateQR(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", string(img.Data))
}

func TestAPIClient_GenerateQR_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name:    "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewAPIClient(srv.URL, "", 0, &mockLogger{})
			_, err := c.GenerateQR(context.Background(), request("x", 100))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrServiceUnavailable))
		})
	}
}

func TestAPIClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewAPIClient(url, "", 0, &mockLogger{})
	_, err := c.GenerateQR(context.Background(), request("x", 100))
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.ErrorIs(t, c.Ping(context.Background()), ErrServiceUnavailable)
}

func TestAPIClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/status", r.URL.Path)
		w.Write([]byte(`{"status":"OK"}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", 0, &mockLogger{})
	assert.NoError(t, c.Ping(context.Background()))
}

func TestGenerator_UsesRemote(t *testing.T) {
	g := NewGenerator(okRemote{}, &mockLogger{})
	res, err := g.Generate(context.Background(), request("hello", 200))
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, []byte("real"), res.Image.Data)
}

func TestGenerator_FallsBackOnServiceFailure(t *testing.T) {
	log := &mockLogger{}
	remote := &failingRemote{}
	g := NewGenerator(remote, log)

	res, err := g.Generate(context.Background(), request("https://example.com", 200))
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, 1, remote.calls)
	assert.Len(t, log.infos, 1)
	assert.Empty(t, log.errors)

	img, err := png.Decode(bytes.NewReader(res.Image.Data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())

	want, err := fallback.Generate("https://example.com", fallback.Options{
		Size:       200,
		Foreground: models.Black,
		Background: models.White,
	})
	require.NoError(t, err)
	assert.Equal(t, want.Data, res.Image.Data)
}

func TestGenerator_Offline(t *testing.T) {
	g := NewGenerator(nil, &mockLogger{})
	req := request("offline", 64)
	req.Format = models.FormatSVG

	res, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, render.MimeSVG, res.Image.ContentType)
	assert.True(t, strings.HasPrefix(string(res.Image.Data), "<?xml"))
	assert.Contains(t, string(res.Image.Data), "<svg")
	assert.Contains(t, string(res.Image.Data), `width="64"`)
}

func TestGenerator_InvalidInput(t *testing.T) {
	remote := &failingRemote{}
	g := NewGenerator(remote, &mockLogger{})

	tests := []struct {
		name string
		req  models.EncodeRequest
		want error
	}{
		{"empty payload", request("", 100), models.ErrEmptyPayload},
		{"zero size", request("x", 0), models.ErrInvalidSize},
		{"negative size", request("x", -5), models.ErrInvalidSize},
		{"oversized", request("x", 100000), models.ErrInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Generate(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
	assert.Zero(t, remote.calls)
}

func TestGenerator_FallbackFailureSurfaced(t *testing.T) {
	log := &mockLogger{}
	g := NewGenerator(&failingRemote{}, log)
	g.Fallback = func(payload string, opts fallback.Options) (*render.Image, error) {
		// gif не поддерживается отрисовкой
		opts.Format = "gif"
		return fallback.Generate(payload, opts)
	}

	res, err := g.Generate(context.Background(), request("x", 100))
	require.ErrorIs(t, err, fallback.ErrRasterization)
	assert.Nil(t, res)
	assert.Len(t, log.errors, 1)
}
