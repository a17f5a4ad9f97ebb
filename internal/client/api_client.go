package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrPunder/qr-generator/internal/logger"
	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/MrPunder/qr-generator/internal/render"
)

const (
	DefaultTimeout = 10 * time.Second

	generatePath = "/api/generate-qr"
)

// ErrServiceUnavailable сервис кодирования не ответил или ответил ошибкой.
// Вызывающий код переключается на запасной генератор.
var ErrServiceUnavailable = errors.New("encoding service unavailable")

// APIClient клиент HTTP API сервиса кодирования
type APIClient struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     logger.Logger
}

// NewAPIClient создает клиент; timeout <= 0 означает DefaultTimeout
func NewAPIClient(baseURL, apiToken string, timeout time.Duration, logger logger.Logger) *APIClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &APIClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrServiceUnavailable, fmt.Sprintf(format, args...))
}

// NewGenerateQRRequest переводит запрос кодирования в тело /api/generate-qr
func NewGenerateQRRequest(req models.EncodeRequest) models.GenerateQRRequest {
	format, err := models.ParseOutputFormat(string(req.Format))
	if err != nil {
		format = models.FormatPNG
	}
	margin := req.Margin
	return models.GenerateQRRequest{
		Data: req.Payload,
		Options: models.QROptions{
			Type:   string(format),
			Width:  req.Size,
			Margin: &margin,
			Color: models.QRColors{
				Dark:  req.Foreground.Hex(),
				Light: req.Background.Hex(),
			},
			ErrorCorrectionLevel: string(req.Level),
		},
	}
}

// GenerateQR запрашивает изображение у сервиса. Любая ошибка транспорта или ответа
// оборачивает ErrServiceUnavailable.
func (c *APIClient) GenerateQR(ctx context.Context, req models.EncodeRequest) (*render.Image, error) {
	reqURL, err := url.Parse(c.baseURL + generatePath)
	if err != nil {
		return nil, unavailable("bad service URL: %s", err)
	}

	body := NewGenerateQRRequest(req)
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(jsonData))
	if err != nil {
		return nil, unavailable("failed to create request: %s", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept-Encoding", "gzip")
	if c.apiToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, unavailable("request failed: %s", err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return nil, unavailable("failed to read response: %s", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, unavailable("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	format := models.OutputFormat(body.Options.Type)
	contentType := resp.Header.Get("Content-Type")

	if format == models.FormatDataURL {
		var dr models.DataURLResponse
		if err := json.Unmarshal(data, &dr); err != nil {
			return nil, unavailable("failed to decode data URL response: %s", err)
		}
		if !strings.HasPrefix(dr.QRCode, "data:") {
			return nil, unavailable("unexpected data URL response")
		}
		return &render.Image{Data: []byte(dr.QRCode), ContentType: "text/plain", Format: format}, nil
	}

	if len(data) == 0 {
		return nil, unavailable("empty response")
	}

	c.logger.Debugf("received %d bytes of %s from encoding service", len(data), contentType)

	return &render.Image{Data: data, ContentType: contentType, Format: format}, nil
}

// Ping проверяет доступность сервиса через /api/status
func (c *APIClient) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return unavailable("failed to create request: %s", err)
	}
	if c.apiToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return unavailable("request failed: %s", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return unavailable("status %d", resp.StatusCode)
	}
	return nil
}

// readBody читает тело ответа с учетом gzip
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(reader)
}
