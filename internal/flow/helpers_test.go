package flow

import (
	"image"
	"testing"

	"github.com/bnema/waypick/internal/gfx"
	"github.com/stretchr/testify/require"
)

func newCanvas(t *testing.T) *gfx.Canvas {
	t.Helper()
	fonts, err := gfx.LoadFonts()
	require.NoError(t, err)
	return gfx.NewCanvas(image.NewRGBA(image.Rect(0, 0, 800, 600)), 1, fonts)
}
