// Package config handles configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ErrNoHome is returned by ExpandPath when HOME is not set.
var ErrNoHome = errors.New("HOME is not set")

// Config represents the application configuration
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Window    WindowConfig    `mapstructure:"window"`
	Wifi      WifiConfig      `mapstructure:"wifi"`
	Wallpaper WallpaperConfig `mapstructure:"wallpaper"`

	v *viper.Viper
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Overridden by -v/-q
}

// WindowConfig controls popup geometry shared by every frame
type WindowConfig struct {
	FontSize float64 `mapstructure:"font_size"`
	Padding  int     `mapstructure:"padding"`
	MinWidth int     `mapstructure:"min_width"`
	MaxRows  int     `mapstructure:"max_rows"`
}

// WifiConfig contains network flow settings
type WifiConfig struct {
	ScanTimeout int `mapstructure:"scan_timeout"` // seconds
}

// WallpaperConfig contains wallpaper picker settings
type WallpaperConfig struct {
	Directory     string `mapstructure:"directory"`
	ThumbnailSize int    `mapstructure:"thumbnail_size"` // width in pixels, 16:9
}

// DefaultConfig provides sensible defaults
var DefaultConfig = Config{
	Logging: LoggingConfig{LogLevel: ""},
	Window: WindowConfig{
		FontSize: 15,
		Padding:  10,
		MinWidth: 240,
		MaxRows:  12,
	},
	Wifi:      WifiConfig{ScanTimeout: 5},
	Wallpaper: WallpaperConfig{Directory: "~/Pictures/wallpapers", ThumbnailSize: 400},
}

// Load reads the TOML file at path. An empty path means the default
// location; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) && !isPathError(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	cfg.v = v
	return cfg, nil
}

// Default returns a configuration holding only defaults.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := DefaultConfig
	cfg.v = v
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)
	v.SetDefault("window.font_size", DefaultConfig.Window.FontSize)
	v.SetDefault("window.padding", DefaultConfig.Window.Padding)
	v.SetDefault("window.min_width", DefaultConfig.Window.MinWidth)
	v.SetDefault("window.max_rows", DefaultConfig.Window.MaxRows)
	v.SetDefault("wifi.scan_timeout", DefaultConfig.Wifi.ScanTimeout)
	v.SetDefault("wallpaper.directory", DefaultConfig.Wallpaper.Directory)
	v.SetDefault("wallpaper.thumbnail_size", DefaultConfig.Wallpaper.ThumbnailSize)
}

// Save writes the defaults to path, creating its directory. An existing
// file is kept unless force is set.
func Save(path string, force bool) error {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// viper reports a missing explicit config file as a plain *fs.PathError
func isPathError(err error) bool {
	var pe *os.PathError
	return errors.As(err, &pe) && errors.Is(pe.Err, os.ErrNotExist)
}

// Theme returns a read-only lookup over the [section] tables of the file.
func (c *Config) Theme() Theme {
	return Theme{v: c.v}
}

// DefaultPath returns the per-user config file location
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "waypick", "waypick.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "waypick.toml"
	}
	return filepath.Join(home, ".config", "waypick", "waypick.toml")
}

// ExpandPath expands a leading "~" or "$HOME" using the HOME variable.
func ExpandPath(path string) (string, error) {
	var rest string
	switch {
	case path == "~" || path == "$HOME":
	case strings.HasPrefix(path, "~/"):
		rest = path[2:]
	case strings.HasPrefix(path, "$HOME/"):
		rest = path[len("$HOME/"):]
	default:
		return path, nil
	}

	home := os.Getenv("HOME")
	if home == "" {
		return "", fmt.Errorf("expand %q: %w", path, ErrNoHome)
	}
	return filepath.Join(home, rest), nil
}
