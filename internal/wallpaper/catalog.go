// Package wallpaper finds wallpaper images and keeps a thumbnail cache.
package wallpaper

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bnema/waypick/internal/logger"
	"github.com/fsnotify/fsnotify"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
}

// Wallpaper is one image file.
type Wallpaper struct {
	Path     string
	Modified time.Time
	Size     int64
}

// IsImage reports whether path has a supported extension.
func IsImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// Catalog walks dir recursively and returns its images, newest first.
// Unreadable subdirectories are skipped.
func Catalog(dir string) ([]Wallpaper, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("wallpaper directory: %w", err)
	}
	var out []Wallpaper
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsImage(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		out = append(out, Wallpaper{Path: path, Modified: info.ModTime(), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(out)
	logger.Debug("Loaded wallpapers", "dir", dir, "count", len(out))
	return out, nil
}

func sortNewestFirst(w []Wallpaper) {
	sort.SliceStable(w, func(i, j int) bool { return w[i].Modified.After(w[j].Modified) })
}

// Watch calls fn for every image created or rewritten under dir until ctx
// is done. Subdirectories that exist when Watch starts are watched too.
func Watch(ctx context.Context, dir string, fn func(Wallpaper)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			logger.Warn("Failed to watch directory", "path", path, "err", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	seen := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "err", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !IsImage(ev.Name) {
				continue
			}
			info, err := os.Stat(ev.Name)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			// editors and copies emit several writes per file
			if t, ok := seen[ev.Name]; ok && t.Equal(info.ModTime()) {
				continue
			}
			seen[ev.Name] = info.ModTime()
			fn(Wallpaper{Path: ev.Name, Modified: info.ModTime(), Size: info.Size()})
		}
	}
}
