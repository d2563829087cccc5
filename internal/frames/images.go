package frames

import (
	"image"
	"math"

	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/gfx"
	"github.com/bnema/waypick/internal/input"
	"github.com/bnema/waypick/internal/ui"
)

const (
	tileWidth    = 400
	tileHeight   = 225
	tileSpacing  = 20
	imagePadding = 20
	// fraction of the remaining distance scrolled per render
	scrollEase = 0.15
)

// Image is one entry of an ImageList. Thumb may be nil while the
// thumbnail is still being generated.
type Image struct {
	Path  string
	Thumb image.Image
}

// ImageList is a horizontal carousel centred on the output. Left/Right
// move, Enter or Space submit the path, Escape cancels.
type ImageList struct {
	style   Style
	images  []Image
	cursor  int
	scroll  float64
	hover   int
	width   int
	loading string
}

// NewImageList sizes the carousel to 80% of the viewport width.
func NewImageList(viewportWidth int) *ImageList {
	return &ImageList{
		style:   DefaultStyle(),
		width:   int(float64(viewportWidth)*0.8) + imagePadding*2,
		hover:   -1,
		loading: "Generating thumbnails...",
	}
}

func (l *ImageList) ApplyTheme(theme config.Theme) { l.style = LoadStyle(theme) }

// Centered places the carousel in the middle of the output.
func (l *ImageList) Centered() bool { return true }

// Add appends images.
func (l *ImageList) Add(images ...Image) {
	l.images = append(l.images, images...)
}

// Put replaces the image with the same path in place, or appends it.
func (l *ImageList) Put(img Image) {
	for i := range l.images {
		if l.images[i].Path == img.Path {
			l.images[i] = img
			return
		}
	}
	l.images = append(l.images, img)
}

// Len is the number of images.
func (l *ImageList) Len() int { return len(l.images) }

// Selected returns the highlighted image.
func (l *ImageList) Selected() (Image, bool) {
	if l.cursor < 0 || l.cursor >= len(l.images) {
		return Image{}, false
	}
	return l.images[l.cursor], true
}

func (l *ImageList) navigate(delta int) {
	if len(l.images) == 0 {
		return
	}
	l.cursor = min(max(l.cursor+delta, 0), len(l.images)-1)
}

func (l *ImageList) submit() (ui.Result, bool) {
	if img, ok := l.Selected(); ok {
		return ui.Submitted(img.Path), true
	}
	return ui.Result{}, false
}

func (l *ImageList) Render(ctx *ui.Context) ui.Result {
	for _, e := range pressed(ctx.Events) {
		switch e.Key {
		case input.KeyLeft, input.KeyH:
			l.navigate(-1)
		case input.KeyRight, input.KeyL:
			l.navigate(1)
		case input.KeyHome:
			l.navigate(-len(l.images))
		case input.KeyEnd:
			l.navigate(len(l.images))
		case input.KeyEnter, input.KeySpace:
			if res, ok := l.submit(); ok {
				return res
			}
		case input.KeyEscape:
			return ui.Cancelled()
		}
	}

	p := ctx.Pointer
	switch {
	case p.WheelY > 0 || p.WheelX > 0:
		l.navigate(1)
	case p.WheelY < 0 || p.WheelX < 0:
		l.navigate(-1)
	}

	c := ctx.Canvas
	st := l.style
	contentW := l.width - imagePadding*2
	step := float64(tileWidth + tileSpacing)
	target := float64(l.cursor)*step - float64(contentW-tileWidth)/2
	l.scroll += (target - l.scroll) * scrollEase
	if math.Abs(target-l.scroll) < 0.5 {
		l.scroll = target
	}

	// hit test before drawing so a click lands on what is visible
	l.hover = -1
	if p.Inside && p.Y >= imagePadding && p.Y < imagePadding+tileHeight {
		x := p.X - imagePadding + l.scroll
		if x >= 0 {
			i := int(x / step)
			if i < len(l.images) && x-float64(i)*step < tileWidth {
				l.hover = i
			}
		}
	}
	if p.Clicked[input.ButtonLeft] && l.hover >= 0 {
		l.cursor = l.hover
		if res, ok := l.submit(); ok {
			return res
		}
	}

	st.background(c)
	if len(l.images) == 0 {
		c.Text(imagePadding, imagePadding, l.loading, gfx.Regular, st.FontSize, st.Muted)
		return ui.Continued()
	}

	for i, img := range l.images {
		x := imagePadding + int(float64(i)*step-l.scroll)
		if x+tileWidth < 0 || x > l.width {
			continue
		}
		if img.Thumb != nil {
			c.DrawImage(img.Thumb, x, imagePadding, tileWidth, tileHeight)
		} else {
			c.FillRect(x, imagePadding, tileWidth, tileHeight, st.Border)
		}
		switch i {
		case l.cursor:
			c.StrokeRect(x, imagePadding, tileWidth, tileHeight, 4, st.Active)
		case l.hover:
			c.StrokeRect(x, imagePadding, tileWidth, tileHeight, 2, st.Hover)
		}
	}
	return ui.Continued()
}

func (l *ImageList) Size() (int, int) {
	return l.width, tileHeight + imagePadding*2
}
