// Package fallback рисует похожий на QR-код узор, когда сервис кодирования недоступен.
//
// Узор детерминирован и зависит только от текста, но это не QR-код: его нельзя
// отсканировать. Сетка всегда 25×25 модулей, поисковый узор есть только в левом верхнем углу.
package fallback

import (
	"errors"
	"fmt"

	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/MrPunder/qr-generator/internal/render"
)

const (
	// GridSize сторона сетки в модулях, не зависит от размера изображения
	GridSize = 25
	// FinderSize сторона поискового узора в модулях
	FinderSize = 7
	// DefaultSize размер изображения, если размер не задан
	DefaultSize = 256
)

// ErrRasterization ошибка кодирования готовой сетки в изображение.
// Построение сетки ошибок не дает, поэтому это ошибка окружения, а не данных.
var ErrRasterization = errors.New("fallback rasterization failed")

// Options параметры отрисовки запасного узора
type Options struct {
	Size       int
	Foreground models.Color
	Background models.Color
	Format     models.OutputFormat
}

// Grid сетка модулей; Grid[i][j], i строка, j столбец
type Grid [GridSize][GridSize]bool

func (g *Grid) Dimension() int { return GridSize }

// Get возвращает модуль в столбце x и строке y
func (g *Grid) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= GridSize || y >= GridSize {
		return false
	}
	return g[y][x]
}

// Hash полиномиальный хеш строки: acc = acc*31 - acc + cp по кодовым точкам,
// в 32-битной арифметике со знаком и переполнением по модулю 2^32.
func Hash(payload string) int32 {
	var acc int32
	for _, cp := range payload {
		acc = acc*31 - acc + int32(cp)
	}
	return acc
}

// floorMod остаток от деления с округлением вниз, всегда неотрицателен при m > 0
func floorMod(a, m int64) int64 {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// filled решает, закрашен ли модуль (i, j) до наложения поискового узора.
// Сумма считается в int64, чтобы h + i*j не переполнялась.
func filled(h int32, i, j int) bool {
	return floorMod(int64(h)+int64(i*j), 3) == 0
}

// NewGrid строит сетку для текста. Пустая строка допустима.
func NewGrid(payload string) *Grid {
	h := Hash(payload)

	var g Grid
	for i := 0; i < GridSize; i++ {
		for j := 0; j < GridSize; j++ {
			g[i][j] = filled(h, i, j)
		}
	}
	stampFinder(&g)
	return &g
}

// stampFinder накладывает поисковый узор в левый верхний угол:
// 7×7 передний план, внутри 5×5 фон, внутри 3×3 передний план.
func stampFinder(g *Grid) {
	for i := 0; i < FinderSize; i++ {
		for j := 0; j < FinderSize; j++ {
			g[i][j] = true
		}
	}
	for i := 1; i < FinderSize-1; i++ {
		for j := 1; j < FinderSize-1; j++ {
			g[i][j] = false
		}
	}
	for i := 2; i < FinderSize-2; i++ {
		for j := 2; j < FinderSize-2; j++ {
			g[i][j] = true
		}
	}
}

// Generate строит сетку и отрисовывает ее. Ошибка возможна только при отказе кодирования изображения.
func Generate(payload string, opts Options) (*render.Image, error) {
	size := opts.Size
	if size <= 0 {
		size = DefaultSize
	}

	img, err := render.Encode(NewGrid(payload), render.Options{
		Size:       size,
		Foreground: opts.Foreground,
		Background: opts.Background,
	}, opts.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRasterization, err)
	}
	return img, nil
}
