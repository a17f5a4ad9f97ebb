package qrcode

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/MrPunder/qr-generator/internal/render"
	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent возвращается при пустом содержимом
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrEncode ошибка кодирования QR-кода (например, слишком длинный текст)
	ErrEncode = errors.New("failed to encode QR code")
	// ErrUnknownEncoder неизвестное имя кодировщика в конфигурации
	ErrUnknownEncoder = errors.New("unknown encoder")
)

// Encoder строит матрицу модулей настоящего QR-кода без полей
type Encoder interface {
	Encode(content string, level models.ECLevel) (render.Matrix, error)
}

// NewEncoder выбирает реализацию по имени из конфигурации
func NewEncoder(name string) (Encoder, error) {
	switch strings.ToLower(name) {
	case "", "barcode", "boombuler":
		return BarcodeEncoder{}, nil
	case "skip2":
		return Skip2Encoder{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoder, name)
}

// BarcodeEncoder кодирует через github.com/boombuler/barcode
type BarcodeEncoder struct{}

func (BarcodeEncoder) Encode(content string, level models.ECLevel) (render.Matrix, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	code, err := qr.Encode(content, barcodeLevel(level), qr.Auto)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	return barcodeMatrix{code}, nil
}

func barcodeLevel(level models.ECLevel) qr.ErrorCorrectionLevel {
	switch level {
	case models.LevelL:
		return qr.L
	case models.LevelQ:
		return qr.Q
	case models.LevelH:
		return qr.H
	default:
		return qr.M
	}
}

// barcodeMatrix адаптирует barcode.Barcode к render.Matrix
type barcodeMatrix struct {
	code barcode.Barcode
}

func (m barcodeMatrix) Dimension() int {
	return m.code.Bounds().Dx()
}

func (m barcodeMatrix) Get(x, y int) bool {
	return m.code.At(x, y) == color.Black
}

// Skip2Encoder кодирует через github.com/skip2/go-qrcode
type Skip2Encoder struct{}

func (Skip2Encoder) Encode(content string, level models.ECLevel) (render.Matrix, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	code, err := skipqrcode.New(content, skip2Level(level))
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	// Поля добавляет render, чтобы оба кодировщика вели себя одинаково
	code.DisableBorder = true
	return render.BoolMatrix(code.Bitmap()), nil
}

func skip2Level(level models.ECLevel) skipqrcode.RecoveryLevel {
	switch level {
	case models.LevelL:
		return skipqrcode.Low
	case models.LevelQ:
		return skipqrcode.High
	case models.LevelH:
		return skipqrcode.Highest
	default:
		return skipqrcode.Medium
	}
}
