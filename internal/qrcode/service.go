package qrcode

import (
	"fmt"

	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/MrPunder/qr-generator/internal/render"
)

// Service сервис кодирования: проверяет запрос, кодирует текст и отрисовывает результат
type Service struct {
	encoder Encoder
}

func NewService(encoder Encoder) *Service {
	return &Service{encoder: encoder}
}

// Generate возвращает изображение QR-кода. Ошибки валидации оборачивают models.ErrInvalidInput.
func (s *Service) Generate(req models.EncodeRequest) (*render.Image, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Validate уже проверил значения, ошибки здесь невозможны
	format, _ := models.ParseOutputFormat(string(req.Format))
	level, _ := models.ParseECLevel(string(req.Level))

	matrix, err := s.encoder.Encode(req.Payload, level)
	if err != nil {
		return nil, err
	}

	img, err := render.Encode(matrix, render.Options{
		Size:       req.Size,
		Margin:     req.Margin,
		Foreground: req.Foreground,
		Background: req.Background,
	}, format)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return img, nil
}
