// Package frames holds the interactive units shown in the popup: menus,
// text fields, status lines, image carousels and custom forms.
package frames

import (
	"image/color"

	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/gfx"
	"github.com/bnema/waypick/internal/input"
)

// Style is the look shared by every frame.
type Style struct {
	FontSize float64
	Padding  int
	MinWidth int
	MaxRows  int

	Background color.RGBA
	Foreground color.RGBA
	Muted      color.RGBA
	Border     color.RGBA
	Hover      color.RGBA
	Active     color.RGBA
	Info       color.RGBA
	Success    color.RGBA
	Error      color.RGBA
}

// DefaultStyle matches the built-in config defaults.
func DefaultStyle() Style {
	return Style{
		FontSize:   config.DefaultConfig.Window.FontSize,
		Padding:    config.DefaultConfig.Window.Padding,
		MinWidth:   config.DefaultConfig.Window.MinWidth,
		MaxRows:    config.DefaultConfig.Window.MaxRows,
		Background: color.RGBA{0x1e, 0x1e, 0x2e, 0xff},
		Foreground: color.RGBA{0xe0, 0xe0, 0xe0, 0xff},
		Muted:      color.RGBA{0x80, 0x80, 0x90, 0xff},
		Border:     color.RGBA{0x44, 0x44, 0x55, 0xff},
		Hover:      color.RGBA{0x14, 0x1f, 0x2e, 0x66},
		Active:     color.RGBA{0x33, 0x66, 0xb3, 0xff},
		Info:       color.RGBA{0xb3, 0xb3, 0xff, 0xff},
		Success:    color.RGBA{0x00, 0xff, 0x00, 0xff},
		Error:      color.RGBA{0xff, 0x00, 0x00, 0xff},
	}
}

// LoadStyle reads [window] metrics and [theme] colours.
func LoadStyle(theme config.Theme) Style {
	d := DefaultStyle()
	s := Style{
		FontSize:   theme.Float("window", "font_size", d.FontSize),
		Padding:    theme.Int("window", "padding", d.Padding),
		MinWidth:   theme.Int("window", "min_width", d.MinWidth),
		MaxRows:    theme.Int("window", "max_rows", d.MaxRows),
		Background: theme.Color("theme", "background_color", d.Background),
		Foreground: theme.Color("theme", "font_color", d.Foreground),
		Muted:      theme.Color("theme", "muted_color", d.Muted),
		Border:     theme.Color("theme", "border_color", d.Border),
		Hover:      theme.Color("theme", "hover_color", d.Hover),
		Active:     theme.Color("theme", "active_color", d.Active),
		Info:       theme.Color("theme", "info_color", d.Info),
		Success:    theme.Color("theme", "success_color", d.Success),
		Error:      theme.Color("theme", "error_color", d.Error),
	}
	if s.FontSize <= 0 {
		s.FontSize = d.FontSize
	}
	if s.MaxRows < 1 {
		s.MaxRows = 1
	}
	if s.Padding < 0 {
		s.Padding = 0
	}
	return s
}

// rowHeight is the height of one list row including its inner padding.
func (s Style) rowHeight(c *gfx.Canvas) int {
	return c.LineHeight(gfx.Regular, s.FontSize) + s.Padding
}

// background paints the frame chrome.
func (s Style) background(c *gfx.Canvas) {
	w, h := c.Size()
	c.Clear(s.Background)
	c.StrokeRect(0, 0, w, h, 1, s.Border)
}

// typed returns text input not produced under Ctrl or Alt, which are
// reserved for shortcuts.
func typed(events []input.Event) string {
	var out string
	for _, e := range events {
		if e.Kind == input.TextEvent && !e.Mods.Ctrl && !e.Mods.Alt {
			out += e.Text
		}
	}
	return out
}

// pressed returns the key-downs queued for this render.
func pressed(events []input.Event) []input.Event {
	var out []input.Event
	for _, e := range events {
		if e.Kind == input.KeyDownEvent {
			out = append(out, e)
		}
	}
	return out
}
