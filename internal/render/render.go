// Package render превращает матрицу модулей в изображение заданного размера.
// Используется и настоящим кодировщиком, и запасным генератором.
package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/MrPunder/qr-generator/internal/models"
)

const (
	MimePNG = "image/png"
	MimeSVG = "image/svg+xml"
)

// Matrix квадратная матрица модулей: true означает модуль цвета переднего плана
type Matrix interface {
	Dimension() int
	Get(x, y int) bool
}

// Options параметры отрисовки
type Options struct {
	Size       int // сторона изображения в пикселях
	Margin     int // поля в модулях
	Foreground models.Color
	Background models.Color
}

// Image готовый результат отрисовки
type Image struct {
	Data        []byte
	ContentType string
	Format      models.OutputFormat
}

// Rasterize рисует матрицу в изображение ровно Size×Size пикселей.
// Пиксель p попадает в модуль p*total/Size, где total включает поля с обеих сторон,
// поэтому все модули масштабируются одинаково.
func Rasterize(m Matrix, opts Options) *image.Paletted {
	size := opts.Size
	palette := color.Palette{opts.Background.RGBA(), opts.Foreground.RGBA()}
	img := image.NewPaletted(image.Rect(0, 0, size, size), palette)

	dim := m.Dimension()
	total := dim + 2*opts.Margin
	if size <= 0 || total <= 0 {
		return img
	}

	// Индексы модулей по строкам и столбцам одинаковы, считаем один раз
	lookup := make([]int, size)
	for p := 0; p < size; p++ {
		lookup[p] = p*total/size - opts.Margin
	}

	for py := 0; py < size; py++ {
		my := lookup[py]
		if my < 0 || my >= dim {
			continue
		}
		row := img.Pix[py*img.Stride : py*img.Stride+size]
		for px := 0; px < size; px++ {
			mx := lookup[px]
			if mx >= 0 && mx < dim && m.Get(mx, my) {
				row[px] = 1
			}
		}
	}
	return img
}

// PNG кодирует матрицу в PNG
func PNG(m Matrix, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Rasterize(m, opts)); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// SVG строит векторное изображение: фон и по одному прямоугольнику на каждую серию темных модулей в строке
func SVG(m Matrix, opts Options) []byte {
	dim := m.Dimension()
	total := dim + 2*opts.Margin

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`,
		opts.Size, opts.Size, total, total)
	fmt.Fprintf(&sb, `<rect width="%d" height="%d" fill="%s"/>`, total, total, opts.Background.Hex())

	fill := opts.Foreground.Hex()
	for y := 0; y < dim; y++ {
		for x := 0; x < dim; {
			if !m.Get(x, y) {
				x++
				continue
			}
			start := x
			for x < dim && m.Get(x, y) {
				x++
			}
			fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="%d" height="1" fill="%s"/>`,
				start+opts.Margin, y+opts.Margin, x-start, fill)
		}
	}
	sb.WriteString(`</svg>`)
	return []byte(sb.String())
}

// DataURL кодирует данные в data URL
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Encode отрисовывает матрицу в нужном формате
func Encode(m Matrix, opts Options, format models.OutputFormat) (*Image, error) {
	switch format {
	case models.FormatSVG:
		return &Image{Data: SVG(m, opts), ContentType: MimeSVG, Format: format}, nil
	case models.FormatDataURL:
		data, err := PNG(m, opts)
		if err != nil {
			return nil, err
		}
		return &Image{Data: []byte(DataURL(MimePNG, data)), ContentType: "text/plain", Format: format}, nil
	case models.FormatPNG, "":
		data, err := PNG(m, opts)
		if err != nil {
			return nil, err
		}
		return &Image{Data: data, ContentType: MimePNG, Format: models.FormatPNG}, nil
	}
	return nil, fmt.Errorf("%w: %q", models.ErrInvalidFmt, format)
}

// BoolMatrix матрица на основе среза строк; bm[y][x]
type BoolMatrix [][]bool

func (bm BoolMatrix) Dimension() int { return len(bm) }

func (bm BoolMatrix) Get(x, y int) bool {
	if y < 0 || y >= len(bm) || x < 0 || x >= len(bm[y]) {
		return false
	}
	return bm[y][x]
}
