package gfx

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Weight selects a font file.
type Weight int

const (
	Regular Weight = iota
	Bold
)

type faceKey struct {
	weight Weight
	size   float64 // physical points
}

// Fonts caches parsed fonts and sized faces. Safe for concurrent use.
type Fonts struct {
	mu    sync.Mutex
	fonts map[Weight]*opentype.Font
	faces map[faceKey]font.Face
}

// LoadFonts parses the embedded Go fonts.
func LoadFonts() (*Fonts, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &Fonts{
		fonts: map[Weight]*opentype.Font{Regular: regular, Bold: bold},
		faces: make(map[faceKey]font.Face),
	}, nil
}

func (f *Fonts) face(weight Weight, size float64) font.Face {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := faceKey{weight, size}
	if face, ok := f.faces[key]; ok {
		return face
	}
	face, err := opentype.NewFace(f.fonts[weight], &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		// only fails for invalid options
		panic(err)
	}
	f.faces[key] = face
	return face
}

// Canvas draws in logical coordinates onto a physical-pixel image.
type Canvas struct {
	img   *image.RGBA
	scale int
	fonts *Fonts
}

// NewCanvas wraps img, which must be scale times the logical size.
func NewCanvas(img *image.RGBA, scale int, fonts *Fonts) *Canvas {
	if scale < 1 {
		scale = 1
	}
	return &Canvas{img: img, scale: scale, fonts: fonts}
}

// Size is the logical size of the canvas.
func (c *Canvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx() / c.scale, b.Dy() / c.scale
}

func (c *Canvas) Scale() int { return c.scale }

// Image exposes the backing image.
func (c *Canvas) Image() *image.RGBA { return c.img }

func (c *Canvas) rect(x, y, w, h int) image.Rectangle {
	s := c.scale
	return image.Rect(x*s, y*s, (x+w)*s, (y+h)*s).Intersect(c.img.Bounds())
}

// Clear replaces every pixel with col.
func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// FillRect blends col over the rectangle.
func (c *Canvas) FillRect(x, y, w, h int, col color.Color) {
	draw.Draw(c.img, c.rect(x, y, w, h), image.NewUniform(col), image.Point{}, draw.Over)
}

// StrokeRect draws a border of the given logical thickness.
func (c *Canvas) StrokeRect(x, y, w, h, thickness int, col color.Color) {
	c.FillRect(x, y, w, thickness, col)
	c.FillRect(x, y+h-thickness, w, thickness, col)
	c.FillRect(x, y, thickness, h, col)
	c.FillRect(x+w-thickness, y, thickness, h, col)
}

// LineHeight is the logical height of one line at size points.
func (c *Canvas) LineHeight(weight Weight, size float64) int {
	m := c.fonts.face(weight, size*float64(c.scale)).Metrics()
	return ceilDiv((m.Ascent + m.Descent).Ceil(), c.scale)
}

// TextWidth is the logical advance of s.
func (c *Canvas) TextWidth(s string, weight Weight, size float64) int {
	face := c.fonts.face(weight, size*float64(c.scale))
	return ceilDiv(font.MeasureString(face, s).Ceil(), c.scale)
}

// Text draws s with its line box top-left at (x, y).
func (c *Canvas) Text(x, y int, s string, weight Weight, size float64, col color.Color) {
	face := c.fonts.face(weight, size*float64(c.scale))
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x*c.scale, y*c.scale+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

// TruncateText shortens s with an ellipsis so it fits maxWidth.
func (c *Canvas) TruncateText(s string, weight Weight, size float64, maxWidth int) string {
	if c.TextWidth(s, weight, size) <= maxWidth {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if c.TextWidth(candidate, weight, size) <= maxWidth {
			return candidate
		}
	}
	return ""
}

// DrawImage scales src into the logical rectangle.
func (c *Canvas) DrawImage(src image.Image, x, y, w, h int) {
	s := c.scale
	dst := image.Rect(x*s, y*s, (x+w)*s, (y+h)*s)
	xdraw.ApproxBiLinear.Scale(c.img, dst, src, src.Bounds(), xdraw.Over, nil)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
