package cmd

import (
	"fmt"
	"os"

	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/flow"
	"github.com/bnema/waypick/internal/logger"
	"github.com/bnema/waypick/internal/ui"
	"github.com/bnema/waypick/internal/wallpaper"
	"github.com/spf13/cobra"
)

// fallbackWallpaperDirs are tried when the configured directory is missing.
var fallbackWallpaperDirs = []string{"~/.local/share/wallpapers", "/usr/share/wallpapers"}

var wallpaperCmd = &cobra.Command{
	Use:   "wallpaper [dir]",
	Short: "Pick an image from a wallpaper directory",
	Long: `Shows thumbnails of every image under dir, newest first, and prints the
chosen path. Images added while the picker is open show up at the end.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := wallpaperDir(args)
		if err != nil {
			return err
		}
		cacheDir, err := wallpaper.CacheDir()
		if err != nil {
			return err
		}
		cache, err := wallpaper.NewCache(cacheDir)
		if err != nil {
			return err
		}

		return runFlow(cmd, func(p *popup) (ui.Flow, error) {
			vw, _ := p.Viewport()
			w := flow.NewWallpaper(cmd.Context(), dir, vw, cfg.Wallpaper.ThumbnailSize, flow.DefaultWallpaperSource, cache)
			w.Start()
			return w, nil
		})
	},
}

func init() {
	rootCmd.AddCommand(wallpaperCmd)
}

// wallpaperDir is the directory given on the command line, or the
// configured one, or the first existing fallback.
func wallpaperDir(args []string) (string, error) {
	if len(args) > 0 {
		return config.ExpandPath(args[0])
	}
	candidates := append([]string{cfg.Wallpaper.Directory}, fallbackWallpaperDirs...)
	for _, c := range candidates {
		dir, err := config.ExpandPath(c)
		if err != nil {
			logger.Debug("Skipping wallpaper directory", "dir", c, "err", err)
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no wallpaper directory found, tried %v", candidates)
}
