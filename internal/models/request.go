package models

import (
	"errors"
	"fmt"
	"strings"
)

// MaxSize верхняя граница стороны изображения в пикселях, общая для HTTP API, CLI и бота
const MaxSize = 4096

var (
	// ErrInvalidInput родительская ошибка для всех ошибок валидации запроса
	ErrInvalidInput = errors.New("invalid input")

	ErrEmptyPayload = fmt.Errorf("%w: payload is required", ErrInvalidInput)
	ErrInvalidSize  = fmt.Errorf("%w: invalid size", ErrInvalidInput)
	ErrInvalidColor = fmt.Errorf("%w: invalid color", ErrInvalidInput)
	ErrInvalidLevel = fmt.Errorf("%w: invalid error correction level", ErrInvalidInput)
	ErrInvalidFmt   = fmt.Errorf("%w: invalid output format", ErrInvalidInput)
)

// OutputFormat формат результата кодирования
type OutputFormat string

const (
	FormatPNG     OutputFormat = "png"
	FormatSVG     OutputFormat = "svg"
	FormatDataURL OutputFormat = "dataurl"
)

// ParseOutputFormat принимает как короткие имена, так и MIME-типы.
// Пустая строка означает PNG.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png", "image/png":
		return FormatPNG, nil
	case "svg", "image/svg+xml":
		return FormatSVG, nil
	case "dataurl", "data-url", "data_url", "base64":
		return FormatDataURL, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFmt, s)
}

// ECLevel уровень коррекции ошибок QR-кода
type ECLevel string

const (
	LevelL ECLevel = "L"
	LevelM ECLevel = "M"
	LevelQ ECLevel = "Q"
	LevelH ECLevel = "H"
)

// ParseECLevel разбирает уровень коррекции; пустая строка означает M
func ParseECLevel(s string) (ECLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return LevelM, nil
	case "L":
		return LevelL, nil
	case "M":
		return LevelM, nil
	case "Q":
		return LevelQ, nil
	case "H":
		return LevelH, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// EncodeRequest запрос на построение изображения QR-кода
type EncodeRequest struct {
	Payload    string       `json:"payload"`
	Size       int          `json:"size"`
	Margin     int          `json:"margin"`
	Foreground Color        `json:"foreground"`
	Background Color        `json:"backgroundColor"`
	Format     OutputFormat `json:"outputFormat"`
	Level      ECLevel      `json:"errorCorrectionLevel,omitempty"`
}

// Validate проверяет запрос на границе вызова, до обращения к сервису или запасному генератору
func (r EncodeRequest) Validate() error {
	if r.Payload == "" {
		return ErrEmptyPayload
	}
	if r.Size <= 0 {
		return fmt.Errorf("%w: must be positive", ErrInvalidSize)
	}
	if r.Size > MaxSize {
		return fmt.Errorf("%w: %d exceeds %d", ErrInvalidSize, r.Size, MaxSize)
	}
	if r.Margin < 0 {
		return fmt.Errorf("%w: margin must not be negative", ErrInvalidInput)
	}
	if _, err := ParseOutputFormat(string(r.Format)); err != nil {
		return err
	}
	if _, err := ParseECLevel(string(r.Level)); err != nil {
		return err
	}
	return nil
}
