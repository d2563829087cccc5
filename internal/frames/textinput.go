package frames

import (
	"strings"
	"unicode/utf8"

	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/gfx"
	"github.com/bnema/waypick/internal/input"
	"github.com/bnema/waypick/internal/ui"
)

const (
	textInputWidth = 300
	maxInputRunes  = 1024
	passwordMask   = "•"
)

// TextInput is a single-line editor. Enter submits the text, Escape
// cancels.
type TextInput struct {
	style    Style
	hint     string
	password bool

	text   []rune
	cursor int

	width, height int
}

// NewTextInput returns an empty field showing hint. Password fields mask
// their content.
func NewTextInput(hint string, password bool) *TextInput {
	return &TextInput{style: DefaultStyle(), hint: hint, password: password}
}

func (t *TextInput) ApplyTheme(theme config.Theme) { t.style = LoadStyle(theme) }

// Hint is the placeholder shown while the field is empty.
func (t *TextInput) Hint() string { return t.hint }

// Value is the current text.
func (t *TextInput) Value() string { return string(t.text) }

// SetValue replaces the text and moves the cursor to the end.
func (t *TextInput) SetValue(v string) {
	t.text = []rune(v)
	t.cursor = len(t.text)
}

func (t *TextInput) insert(s string) {
	for _, r := range s {
		if len(t.text) >= maxInputRunes {
			return
		}
		t.text = append(t.text, 0)
		copy(t.text[t.cursor+1:], t.text[t.cursor:])
		t.text[t.cursor] = r
		t.cursor++
	}
}

func (t *TextInput) edit(e input.Event) {
	switch e.Key {
	case input.KeyBackspace:
		if t.cursor > 0 {
			t.text = append(t.text[:t.cursor-1], t.text[t.cursor:]...)
			t.cursor--
		}
	case input.KeyDelete:
		if t.cursor < len(t.text) {
			t.text = append(t.text[:t.cursor], t.text[t.cursor+1:]...)
		}
	case input.KeyLeft:
		t.cursor = max(t.cursor-1, 0)
	case input.KeyRight:
		t.cursor = min(t.cursor+1, len(t.text))
	case input.KeyHome:
		t.cursor = 0
	case input.KeyEnd:
		t.cursor = len(t.text)
	case input.KeyA:
		if e.Mods.Ctrl {
			t.cursor = 0
		}
	case input.KeyE:
		if e.Mods.Ctrl {
			t.cursor = len(t.text)
		}
	case input.KeyU:
		if e.Mods.Ctrl {
			t.text = t.text[t.cursor:]
			t.cursor = 0
		}
	}
}

func (t *TextInput) Render(ctx *ui.Context) ui.Result {
	// text and keys arrive interleaved; apply them in order
	for _, e := range ctx.Events {
		switch e.Kind {
		case input.TextEvent:
			if !e.Mods.Ctrl && !e.Mods.Alt {
				t.insert(e.Text)
			}
		case input.KeyDownEvent:
			switch e.Key {
			case input.KeyEnter:
				return ui.Submitted(string(t.text))
			case input.KeyEscape:
				return ui.Cancelled()
			default:
				t.edit(e)
			}
		}
	}

	c := ctx.Canvas
	st := t.style
	pad := st.Padding
	lineH := c.LineHeight(gfx.Regular, st.FontSize)
	t.width = textInputWidth + pad*2
	t.height = lineH + pad*4

	st.background(c)
	boxX, boxY, boxW, boxH := pad, pad, textInputWidth, lineH+pad*2
	c.StrokeRect(boxX, boxY, boxW, boxH, 1, st.Active)

	textX, textY := boxX+pad, boxY+pad
	if len(t.text) == 0 {
		c.Text(textX, textY, c.TruncateText(t.hint, gfx.Regular, st.FontSize, boxW-pad*2), gfx.Regular, st.FontSize, st.Muted)
		c.FillRect(textX, textY, 1, lineH, st.Foreground)
		return ui.Continued()
	}

	shown := t.display()
	before := t.displayPrefix()
	// keep the caret visible by dropping leading runes
	avail := boxW - pad*2
	for c.TextWidth(before, gfx.Regular, st.FontSize) > avail && before != "" {
		_, size := utf8.DecodeRuneInString(before)
		before = before[size:]
		shown = shown[size:]
	}
	c.Text(textX, textY, c.TruncateText(shown, gfx.Regular, st.FontSize, avail), gfx.Regular, st.FontSize, st.Foreground)
	caretX := textX + c.TextWidth(before, gfx.Regular, st.FontSize)
	c.FillRect(caretX, textY, 1, lineH, st.Foreground)
	return ui.Continued()
}

func (t *TextInput) display() string {
	if t.password {
		return strings.Repeat(passwordMask, len(t.text))
	}
	return string(t.text)
}

func (t *TextInput) displayPrefix() string {
	if t.password {
		return strings.Repeat(passwordMask, t.cursor)
	}
	return string(t.text[:t.cursor])
}

func (t *TextInput) Size() (int, int) { return t.width, t.height }
