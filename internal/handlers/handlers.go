package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrPunder/qr-generator/internal/auth"
	"github.com/MrPunder/qr-generator/internal/config"
	"github.com/MrPunder/qr-generator/internal/fallback"
	"github.com/MrPunder/qr-generator/internal/logger"
	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/MrPunder/qr-generator/internal/render"
	"github.com/MrPunder/qr-generator/internal/storage"
)

const (
	Version = "1.0.0"

	MaxSize = models.MaxSize

	FallbackHeader = models.FallbackHeader
)

// QRGenerator строит изображение QR-кода по запросу
type QRGenerator interface {
	Generate(req models.EncodeRequest) (*render.Image, error)
}

type Handler struct {
	logger   logger.Logger
	store    storage.Storage
	qr       QRGenerator
	defaults config.QRConfig
	timeout  time.Duration

	passwords *auth.PasswordManager
	jwt       *auth.JWTManager
}

func NewHandler(logger logger.Logger, store storage.Storage, qr QRGenerator, defaults config.QRConfig) *Handler {
	return &Handler{
		logger:   logger,
		store:    store,
		qr:       qr,
		defaults: defaults,
		timeout:  3 * time.Second,
	}
}

// WithAdmin включает вход администратора и очистку истории
func (h *Handler) WithAdmin(passwords *auth.PasswordManager, jwt *auth.JWTManager) *Handler {
	h.passwords = passwords
	h.jwt = jwt
	return h
}

func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.NotFound(h.NotFoundHandler)
	r.MethodNotAllowed(h.MethodNotAllowedHandler)

	r.Get("/ping", h.PingHandler)
	r.Post("/generate-qr", h.LegacyGenerateHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate-qr", h.GenerateQRHandler)
		r.Post("/generate-qr-svg", h.GenerateSVGHandler)
		r.Post("/fallback-qr", h.FallbackQRHandler)
		r.Post("/validate-url", h.ValidateURLHandler)
		r.Post("/generate-vcard", h.GenerateVCardHandler)
		r.Get("/status", h.StatusHandler)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.GetHistoryHandler)
			r.Post("/", h.AddHistoryHandler)
			r.Get("/{id}", h.GetHistoryEntryHandler)
			r.Group(func(r chi.Router) {
				if h.jwt != nil {
					r.Use(auth.NewAuthMiddleware(h.jwt, h.logger).Middleware)
				}
				r.Delete("/", h.ClearHistoryHandler)
			})
		})

		r.Post("/admin/login", h.LoginHandler)
	})

	return r
}

func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		h.logger.Errorf("Error writing response %v", err)
	}
}

func (h *Handler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, "endpoint not found", http.StatusNotFound)
}

func (h *Handler) MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
}

// GenerateQRHandler отдает PNG, SVG или JSON с data URL в зависимости от options.type
func (h *Handler) GenerateQRHandler(w http.ResponseWriter, r *http.Request) {
	var body models.GenerateQRRequest
	if !h.decode(w, r, &body) {
		return
	}

	req, err := h.encodeRequest(body)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, err := h.qr.Generate(req)
	if err != nil {
		h.generateError(w, err)
		return
	}
	h.writeImage(w, img)
}

// GenerateSVGHandler всегда отдает SVG
func (h *Handler) GenerateSVGHandler(w http.ResponseWriter, r *http.Request) {
	var body models.GenerateQRRequest
	if !h.decode(w, r, &body) {
		return
	}
	body.Options.Type = string(models.FormatSVG)

	req, err := h.encodeRequest(body)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, err := h.qr.Generate(req)
	if err != nil {
		h.generateError(w, err)
		return
	}
	h.writeImage(w, img)
}

// LegacyGenerateHandler обслуживает форму: {text,size,dark,light} -> {"qrCode": dataURL}
func (h *Handler) LegacyGenerateHandler(w http.ResponseWriter, r *http.Request) {
	var body models.LegacyQRRequest
	if !h.decode(w, r, &body) {
		return
	}

	req, err := h.encodeRequest(models.GenerateQRRequest{
		Data: body.Text,
		Options: models.QROptions{
			Type:  string(models.FormatDataURL),
			Width: body.Size,
			Color: models.QRColors{Dark: body.Dark, Light: body.Light},
		},
	})
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, err := h.qr.Generate(req)
	if err != nil {
		h.generateError(w, err)
		return
	}
	h.writeImage(w, img)
}

// FallbackQRHandler строит запасной узор вместо QR-кода
func (h *Handler) FallbackQRHandler(w http.ResponseWriter, r *http.Request) {
	var body models.GenerateQRRequest
	if !h.decode(w, r, &body) {
		return
	}

	req, err := h.encodeRequest(body)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, err := fallback.Generate(req.Payload, fallback.Options{
		Size:       req.Size,
		Foreground: req.Foreground,
		Background: req.Background,
		Format:     req.Format,
	})
	if err != nil {
		h.logger.Errorf("fallback generation failed: %v", err)
		h.writeError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set(FallbackHeader, "true")
	h.writeImage(w, img)
}

func (h *Handler) ValidateURLHandler(w http.ResponseWriter, r *http.Request) {
	var body models.ValidateURLRequest
	if !h.decode(w, r, &body) {
		return
	}

	if body.URL == "" {
		h.writeJSON(w, http.StatusBadRequest, models.ValidateURLResponse{Valid: false, Error: "url is required"})
		return
	}

	if !validURL(body.URL) {
		h.writeJSON(w, http.StatusOK, models.ValidateURLResponse{Valid: false, Error: "invalid url"})
		return
	}
	h.writeJSON(w, http.StatusOK, models.ValidateURLResponse{Valid: true})
}

// validURL требует абсолютный URL со схемой
func validURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}

func (h *Handler) GenerateVCardHandler(w http.ResponseWriter, r *http.Request) {
	var card models.VCard
	if !h.decode(w, r, &card) {
		return
	}

	if card.Name == "" {
		h.writeError(w, "name is required", http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, models.VCardResponse{VCard: card.String()})
}

func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, models.StatusResponse{
		Status:    "OK",
		Timestamp: models.GetCurrentTime().Format("2006-01-02T15:04:05.000Z07:00"),
		Version:   Version,
	})
}

func (h *Handler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	entries, err := h.store.GetHistory(ctx, models.SharedOwner)
	if err != nil {
		h.logger.Errorf("failed to read history: %v", err)
		h.writeError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) AddHistoryHandler(w http.ResponseWriter, r *http.Request) {
	var body models.HistoryRequest
	if !h.decode(w, r, &body) {
		return
	}

	req, err := h.encodeRequest(models.GenerateQRRequest{
		Data: body.Text,
		Options: models.QROptions{
			Width: body.Size,
			Color: models.QRColors{Dark: body.FgColor, Light: body.BgColor},
		},
	})
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	entry := models.NewHistoryEntry(req)
	if err := h.store.AddEntry(ctx, entry); err != nil {
		h.logger.Errorf("failed to add history entry: %v", err)
		h.writeError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) GetHistoryEntryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "invalid id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	entry, err := h.store.GetEntry(ctx, models.SharedOwner, id)
	if errors.Is(err, storage.ErrEntryNotFound) {
		h.writeError(w, "history entry not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Errorf("failed to read history entry %s: %v", id, err)
		h.writeError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) ClearHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if h.jwt == nil {
		h.writeError(w, "admin is not configured", http.StatusForbidden)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.ClearHistory(ctx, models.SharedOwner); err != nil {
		h.logger.Errorf("failed to clear history: %v", err)
		h.writeError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if h.jwt == nil || h.passwords == nil {
		h.writeError(w, "admin is not configured", http.StatusServiceUnavailable)
		return
	}

	var body models.LoginRequest
	if !h.decode(w, r, &body) {
		return
	}

	err := h.passwords.VerifyPassword(body.Password)
	switch {
	case errors.Is(err, auth.ErrPasswordNotSet):
		h.writeError(w, "admin password is not set", http.StatusServiceUnavailable)
		return
	case errors.Is(err, auth.ErrInvalidPassword):
		h.logger.Info("admin login rejected")
		h.writeError(w, "invalid password", http.StatusUnauthorized)
		return
	case err != nil:
		h.logger.Errorf("failed to verify password: %v", err)
		h.writeError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	token, err := h.jwt.GenerateToken()
	if err != nil {
		h.logger.Errorf("failed to generate token: %v", err)
		h.writeError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "admin_token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.jwt.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	h.writeJSON(w, http.StatusOK, models.LoginResponse{Token: token})
}

// encodeRequest переводит тело API в запрос кодирования, подставляя значения по умолчанию
func (h *Handler) encodeRequest(body models.GenerateQRRequest) (models.EncodeRequest, error) {
	if body.Data == "" {
		return models.EncodeRequest{}, errors.New("data is required")
	}

	opts := body.Options
	req := models.EncodeRequest{
		Payload:    body.Data,
		Size:       opts.Width,
		Margin:     h.defaults.DefaultMargin,
		Foreground: models.Black,
		Background: models.White,
	}

	if req.Size == 0 {
		req.Size = h.defaults.DefaultSize
	}
	if req.Size < 0 || req.Size > MaxSize {
		return req, fmt.Errorf("%w: width must be in 1..%d", models.ErrInvalidSize, MaxSize)
	}
	if opts.Margin != nil {
		req.Margin = *opts.Margin
	}

	var err error
	if opts.Color.Dark != "" {
		if req.Foreground, err = models.ParseColor(opts.Color.Dark); err != nil {
			return req, err
		}
	}
	if opts.Color.Light != "" {
		if req.Background, err = models.ParseColor(opts.Color.Light); err != nil {
			return req, err
		}
	}
	if req.Format, err = models.ParseOutputFormat(opts.Type); err != nil {
		return req, err
	}

	level := opts.ErrorCorrectionLevel
	if level == "" {
		level = h.defaults.DefaultLevel
	}
	if req.Level, err = models.ParseECLevel(level); err != nil {
		return req, err
	}

	return req, req.Validate()
}

func (h *Handler) generateError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrInvalidInput) {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Errorf("failed to generate QR code: %v", err)
	h.writeError(w, "internal server error", http.StatusInternalServerError)
}

func (h *Handler) writeImage(w http.ResponseWriter, img *render.Image) {
	w.Header().Set("Cache-Control", "no-cache")

	if img.Format == models.FormatDataURL {
		h.writeJSON(w, http.StatusOK, models.DataURLResponse{QRCode: string(img.Data)})
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		h.logger.Errorf("Error writing response %v", err)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Debugf("invalid request body: %v", err)
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Errorf("Error writing response %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, msg string, status int) {
	h.writeJSON(w, status, models.ErrorResponse{Error: msg})
}
