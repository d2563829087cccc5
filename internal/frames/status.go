package frames

import (
	"image/color"
	"strings"

	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/gfx"
	"github.com/bnema/waypick/internal/input"
	"github.com/bnema/waypick/internal/ui"
)

// Level picks the colour of a status line.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// Status shows a short message. Escape cancels and Finish makes the next
// render submit.
type Status struct {
	style Style

	text     string
	level    Level
	finished bool
	value    string

	width, height int
}

// NewStatus returns a status frame showing text.
func NewStatus(text string, level Level) *Status {
	return &Status{style: DefaultStyle(), text: text, level: level}
}

func (s *Status) ApplyTheme(theme config.Theme) { s.style = LoadStyle(theme) }

// SetText replaces the message.
func (s *Status) SetText(text string, level Level) {
	s.text, s.level = text, level
}

// Text returns the message and its level.
func (s *Status) Text() (string, Level) {
	return s.text, s.level
}

// Finish makes the next render submit value.
func (s *Status) Finish(value string) {
	s.finished, s.value = true, value
}

func (s *Status) color(level Level) color.RGBA {
	switch level {
	case LevelSuccess:
		return s.style.Success
	case LevelError:
		return s.style.Error
	}
	return s.style.Info
}

func (s *Status) Render(ctx *ui.Context) ui.Result {
	if s.finished {
		return ui.Submitted(s.value)
	}
	if ctx.KeyPressed(input.KeyEscape) {
		return ui.Cancelled()
	}

	c := ctx.Canvas
	st := s.style
	pad := st.Padding
	lineH := c.LineHeight(gfx.Regular, st.FontSize)
	lines := strings.Split(s.text, "\n")

	textW := 0
	for _, l := range lines {
		textW = max(textW, c.TextWidth(l, gfx.Regular, st.FontSize))
	}
	s.width = textW + pad*2
	s.height = len(lines)*lineH + pad*2

	st.background(c)
	col := s.color(s.level)
	for i, l := range lines {
		c.Text(pad, pad+i*lineH, l, gfx.Regular, st.FontSize, col)
	}
	return ui.Continued()
}

func (s *Status) Size() (int, int) { return s.width, s.height }
