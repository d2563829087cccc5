package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/viper"
)

// Theme is a flat (section, key) lookup with caller-supplied defaults.
// Frames only ever read from it.
type Theme struct {
	v *viper.Viper
}

func (t Theme) lookup(section, key string) (interface{}, bool) {
	if t.v == nil {
		return nil, false
	}
	k := section + "." + key
	if !t.v.IsSet(k) {
		return nil, false
	}
	return t.v.Get(k), true
}

// String returns section.key or def.
func (t Theme) String(section, key, def string) string {
	if _, ok := t.lookup(section, key); !ok {
		return def
	}
	return t.v.GetString(section + "." + key)
}

// Int returns section.key or def when unset or not a number.
func (t Theme) Int(section, key string, def int) int {
	raw, ok := t.lookup(section, key)
	if !ok {
		return def
	}
	switch n := raw.(type) {
	case int, int64, float64:
		return t.v.GetInt(section + "." + key)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return def
}

// Float returns section.key or def.
func (t Theme) Float(section, key string, def float64) float64 {
	raw, ok := t.lookup(section, key)
	if !ok {
		return def
	}
	switch n := raw.(type) {
	case int, int64, float64:
		return t.v.GetFloat64(section + "." + key)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return def
}

// Bool returns section.key or def. Strings "true", "yes", "1" and "on"
// are truthy.
func (t Theme) Bool(section, key string, def bool) bool {
	raw, ok := t.lookup(section, key)
	if !ok {
		return def
	}
	switch b := raw.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1", "on":
			return true
		case "false", "no", "0", "off":
			return false
		}
	}
	return def
}

// Color returns section.key decoded from "#RRGGBB" or "#RRGGBBAA", or def
// when unset or malformed.
func (t Theme) Color(section, key string, def color.RGBA) color.RGBA {
	s := t.String(section, key, "")
	if s == "" {
		return def
	}
	c, err := ParseColor(s)
	if err != nil {
		return def
	}
	return c
}

// ParseColor decodes "#RRGGBB" and "#RRGGBBAA".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	alpha := uint8(0xff)
	switch len(s) {
	case 7:
	case 9:
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid alpha in %q: %w", s, err)
		}
		alpha = uint8(a)
		s = s[:7]
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	// color.RGBA is alpha-premultiplied
	return color.RGBA{
		R: uint8(uint16(r) * uint16(alpha) / 0xff),
		G: uint8(uint16(g) * uint16(alpha) / 0xff),
		B: uint8(uint16(b) * uint16(alpha) / 0xff),
		A: alpha,
	}, nil
}
