package wallpaper

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.png")
	mid := filepath.Join(dir, "nested", "mid.PNG")
	fresh := filepath.Join(dir, "fresh.png")
	writeImage(t, old, 4, 4, color.White)
	writeImage(t, mid, 4, 4, color.White)
	writeImage(t, fresh, 4, 4, color.White)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	now := time.Now()
	require.NoError(t, os.Chtimes(old, now, now.Add(-2*time.Hour)))
	require.NoError(t, os.Chtimes(mid, now, now.Add(-time.Hour)))
	require.NoError(t, os.Chtimes(fresh, now, now))

	got, err := Catalog(dir)
	require.NoError(t, err)
	var paths []string
	for _, w := range got {
		paths = append(paths, w.Path)
	}
	assert.Equal(t, []string{fresh, mid, old}, paths)

	_, err = Catalog(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestIsImage(t *testing.T) {
	for _, p := range []string{"a.jpg", "a.JPEG", "b.png", "c.bmp", "d.gif"} {
		assert.True(t, IsImage(p), p)
	}
	for _, p := range []string{"a.webp", "notes.txt", "png"} {
		assert.False(t, IsImage(p), p)
	}
}

func TestScale(t *testing.T) {
	// a wide image: left third red, middle green, right third blue
	src := image.NewRGBA(image.Rect(0, 0, 300, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 300; x++ {
			c := color.RGBA{0, 0xff, 0, 0xff}
			switch {
			case x < 100:
				c = color.RGBA{0xff, 0, 0, 0xff}
			case x >= 200:
				c = color.RGBA{0, 0, 0xff, 0xff}
			}
			src.Set(x, y, c)
		}
	}
	dst := Scale(src, 20, 20)
	assert.Equal(t, image.Rect(0, 0, 20, 20), dst.Bounds())
	assert.Equal(t, color.RGBA{0, 0xff, 0, 0xff}, dst.RGBAAt(10, 10), "the centre is kept")
	assert.Equal(t, color.RGBA{0, 0xff, 0, 0xff}, dst.RGBAAt(1, 1), "the sides are cropped")
}

func TestThumbnailCache(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wall.png")
	writeImage(t, src, 64, 36, color.RGBA{0x10, 0x20, 0x30, 0xff})

	cache, err := NewCache(filepath.Join(dir, "cache"))
	require.NoError(t, err)

	info, err := os.Stat(src)
	require.NoError(t, err)
	w := Wallpaper{Path: src, Modified: info.ModTime(), Size: info.Size()}

	thumb, err := cache.Thumbnail(w, 16, 9)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 9), thumb.Bounds())

	entries, err := os.ReadDir(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// served from the cache even once the source is gone
	require.NoError(t, os.Remove(src))
	again, err := cache.Thumbnail(w, 16, 9)
	require.NoError(t, err)
	assert.Equal(t, thumb.Bounds(), again.Bounds())

	w.Modified = w.Modified.Add(time.Second)
	_, err = cache.Thumbnail(w, 16, 9)
	assert.Error(t, err, "a changed mtime misses the cache")
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/waypick/thumbnails", dir)

	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "/home/me")
	dir, err = CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/home/me/.cache/waypick/thumbnails", dir)

	t.Setenv("HOME", "")
	_, err = CacheDir()
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	found := make(chan Wallpaper, 8)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, dir, func(w Wallpaper) { found <- w }) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("x"), 0o644))
	path := filepath.Join(dir, "new.png")
	writeImage(t, path, 2, 2, color.Black)

	select {
	case w := <-found:
		assert.Equal(t, path, w.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for the new image")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
