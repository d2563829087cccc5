package wallpaper

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/logger"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Cache stores PNG thumbnails keyed by source path, size and mtime.
type Cache struct {
	dir string
}

// CacheDir is $XDG_CACHE_HOME/waypick/thumbnails, or the same under
// ~/.cache.
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "waypick", "thumbnails"), nil
	}
	base, err := config.ExpandPath("~/.cache")
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "waypick", "thumbnails"), nil
}

// NewCache creates dir when needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail cache: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) key(w Wallpaper, width, height int) string {
	h := sha256.New()
	h.Write([]byte(w.Path))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(w.Size, 10)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(w.Modified.UnixNano(), 10)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(width) + "x" + strconv.Itoa(height)))
	return filepath.Join(c.dir, hex.EncodeToString(h.Sum(nil))[:32]+".png")
}

// Thumbnail returns a width×height thumbnail of w, generating and caching
// it on first use.
func (c *Cache) Thumbnail(w Wallpaper, width, height int) (image.Image, error) {
	path := c.key(w, width, height)
	if img, err := readPNG(path); err == nil {
		return img, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.Debug("Regenerating unreadable thumbnail", "path", path, "err", err)
	}

	src, err := readImage(w.Path)
	if err != nil {
		return nil, err
	}
	thumb := Scale(src, width, height)
	if err := writePNG(path, thumb); err != nil {
		// the thumbnail is still usable for this run
		logger.Warn("Failed to cache thumbnail", "path", path, "err", err)
	}
	return thumb, nil
}

// Scale resizes src to fill width×height, cropping the longer side to
// keep the aspect ratio.
func Scale(src image.Image, width, height int) *image.RGBA {
	b := src.Bounds()
	crop := b
	if b.Dx()*height > b.Dy()*width {
		w := b.Dy() * width / height
		crop.Min.X = b.Min.X + (b.Dx()-w)/2
		crop.Max.X = crop.Min.X + w
	} else if b.Dx()*height < b.Dy()*width {
		h := b.Dx() * height / width
		crop.Min.Y = b.Min.Y + (b.Dy()-h)/2
		crop.Max.Y = crop.Min.Y + h
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

func writePNG(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".thumb-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
