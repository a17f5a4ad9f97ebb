package models

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color цвет в RGB без альфа-канала
type Color struct {
	R, G, B uint8
}

var (
	Black = Color{0, 0, 0}
	White = Color{255, 255, 255}
)

// ParseColor разбирает цвет в форматах "#rrggbb", "rrggbb", "#rgb" и "rgb(r, g, b)"
func ParseColor(s string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))

	if strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")") {
		parts := strings.Split(v[4:len(v)-1], ",")
		if len(parts) != 3 {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		var c [3]uint8
		for i, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
			}
			c[i] = uint8(n)
		}
		return Color{c[0], c[1], c[2]}, nil
	}

	v = strings.TrimPrefix(v, "#")
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Color{uint8(n >> 16), uint8(n >> 8), uint8(n)}, nil
}

// Hex возвращает цвет в виде "#rrggbb"
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) RGBA() color.RGBA {
	return color.RGBA{c.R, c.G, c.B, 0xff}
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Hex())
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidColor, data)
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
