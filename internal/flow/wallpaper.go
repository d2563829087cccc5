package flow

import (
	"context"
	"image"

	"github.com/bnema/waypick/internal/frames"
	"github.com/bnema/waypick/internal/logger"
	"github.com/bnema/waypick/internal/ui"
	"github.com/bnema/waypick/internal/wallpaper"
)

// Thumbnailer produces thumbnails, normally a *wallpaper.Cache.
type Thumbnailer interface {
	Thumbnail(w wallpaper.Wallpaper, width, height int) (image.Image, error)
}

// WallpaperSource finds wallpapers and reports new ones.
type WallpaperSource struct {
	Catalog func(dir string) ([]wallpaper.Wallpaper, error)
	Watch   func(ctx context.Context, dir string, fn func(wallpaper.Wallpaper)) error
}

// DefaultWallpaperSource reads the filesystem.
var DefaultWallpaperSource = WallpaperSource{Catalog: wallpaper.Catalog, Watch: wallpaper.Watch}

// Wallpaper shows a carousel of the images in a directory. Thumbnails are
// generated in the background, newest image first, and images added while
// the picker is open join the end. The result is the chosen path.
type Wallpaper struct {
	ctx    context.Context
	dir    string
	source WallpaperSource
	thumbs Thumbnailer
	width  int
	height int

	list   *frames.ImageList
	worker worker
	ready  Pending[frames.Image]

	done   bool
	result string
}

// NewWallpaper sizes the carousel for a viewport viewportWidth wide and
// renders thumbnails at thumbWidth in 16:9.
func NewWallpaper(ctx context.Context, dir string, viewportWidth, thumbWidth int, source WallpaperSource, thumbs Thumbnailer) *Wallpaper {
	return &Wallpaper{
		ctx:    ctx,
		dir:    dir,
		source: source,
		thumbs: thumbs,
		width:  thumbWidth,
		height: thumbWidth * 9 / 16,
		list:   frames.NewImageList(viewportWidth),
	}
}

// Images exposes the carousel.
func (w *Wallpaper) Images() *frames.ImageList { return w.list }

// thumbnail reports false when the image is listed without a preview.
func (w *Wallpaper) thumbnail(wp wallpaper.Wallpaper) (frames.Image, bool) {
	img, err := w.thumbs.Thumbnail(wp, w.width, w.height)
	if err != nil {
		logger.Warn("Failed to create thumbnail", "path", wp.Path, "err", err)
		return frames.Image{Path: wp.Path}, false
	}
	return frames.Image{Path: wp.Path, Thumb: img}, true
}

// Start scans the directory in the background.
func (w *Wallpaper) Start() {
	w.worker.start(w.ctx, func(ctx context.Context) {
		walls, err := w.source.Catalog(w.dir)
		if err != nil {
			logger.Error("Failed to load wallpapers", "dir", w.dir, "err", err)
			return
		}
		// path -> has a thumbnail; failed paths are retried on the next event
		seen := make(map[string]bool, len(walls))
		for _, wp := range walls {
			if w.worker.Stopped() {
				return
			}
			img, ok := w.thumbnail(wp)
			seen[wp.Path] = ok
			w.ready.Push(img)
		}
		if w.source.Watch == nil {
			return
		}
		err = w.source.Watch(ctx, w.dir, func(wp wallpaper.Wallpaper) {
			if seen[wp.Path] || w.worker.Stopped() {
				return
			}
			img, ok := w.thumbnail(wp)
			seen[wp.Path] = ok
			w.ready.Push(img)
		})
		if err != nil {
			logger.Warn("Stopped watching wallpapers", "err", err)
		}
	})
}

// Close stops the background work and waits for it.
func (w *Wallpaper) Close() { w.worker.Close() }

func (w *Wallpaper) Poll() {
	for _, img := range w.ready.Drain() {
		w.list.Put(img)
	}
}

func (w *Wallpaper) CurrentFrame() ui.Frame { return w.list }

func (w *Wallpaper) HandleResult(r ui.Result) bool {
	switch r.Action {
	case ui.Submit:
		w.result = r.Value
		w.done = true
	case ui.Cancel:
		w.done = true
	}
	return !w.done
}

func (w *Wallpaper) Done() bool { return w.done }

func (w *Wallpaper) Result() string { return w.result }
