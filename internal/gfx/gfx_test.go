package gfx

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseStack(t *testing.T) {
	var order []string
	var r releaseStack
	for _, name := range []string{"memfd", "pool", "mapping", "buffer"} {
		name := name
		r.push(name, func() error {
			order = append(order, name)
			if name == "mapping" {
				return errors.New("ignored")
			}
			return nil
		})
	}
	assert.False(t, r.empty())

	r.run()
	r.run()

	assert.Equal(t, []string{"buffer", "mapping", "pool", "memfd"}, order, "reverse order, once")
	assert.True(t, r.empty())
}

func TestCopyBGRA(t *testing.T) {
	src := []byte{0x11, 0x22, 0x33, 0xff, 0xaa, 0xbb, 0xcc, 0x80}
	dst := make([]byte, len(src))
	copyBGRA(dst, src)
	assert.Equal(t, []byte{0x33, 0x22, 0x11, 0xff, 0xcc, 0xbb, 0xaa, 0x80}, dst)

	short := make([]byte, 4)
	copyBGRA(short, src)
	assert.Equal(t, []byte{0x33, 0x22, 0x11, 0xff}, short)
}

func TestMakeCurrentNeedsFreeBuffer(t *testing.T) {
	b := &Binding{}
	assert.ErrorIs(t, b.MakeCurrent(), ErrNoBuffer)

	b.buffers[0] = &shmBuffer{busy: true}
	b.buffers[1] = &shmBuffer{busy: true}
	assert.ErrorIs(t, b.MakeCurrent(), ErrNoBuffer)

	b.buffers[1].busy = false
	require.NoError(t, b.MakeCurrent())
	assert.Same(t, b.buffers[1], b.back)
}

func TestCanvas(t *testing.T) {
	fonts, err := LoadFonts()
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	c := NewCanvas(img, 2, fonts)

	w, h := c.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)

	bg := color.RGBA{0x10, 0x10, 0x10, 0xff}
	c.Clear(bg)
	assert.Equal(t, bg, img.RGBAAt(199, 99))

	red := color.RGBA{0xff, 0, 0, 0xff}
	c.FillRect(10, 10, 5, 5, red)
	assert.Equal(t, red, img.RGBAAt(20, 20), "logical 10 is physical 20")
	assert.Equal(t, red, img.RGBAAt(29, 29))
	assert.Equal(t, bg, img.RGBAAt(30, 30))

	c.FillRect(90, 40, 50, 50, red)
	assert.Equal(t, red, img.RGBAAt(199, 99), "clipped to bounds")

	wide := c.TextWidth("Hello world", Regular, 14)
	narrow := c.TextWidth("Hi", Regular, 14)
	assert.Greater(t, wide, narrow)
	assert.Greater(t, c.LineHeight(Regular, 14), 10)

	truncated := c.TruncateText("a very long label that does not fit", Regular, 14, 60)
	assert.LessOrEqual(t, c.TextWidth(truncated, Regular, 14), 60)
	assert.Contains(t, truncated, "…")
	assert.Equal(t, "short", c.TruncateText("short", Regular, 14, 100))

	c.Clear(bg)
	c.Text(0, 0, "W", Bold, 14, color.White)
	found := false
	for y := 0; y < 40 && !found; y++ {
		for x := 0; x < 40; x++ {
			if img.RGBAAt(x, y) != bg {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "text drew pixels near the origin")
}
