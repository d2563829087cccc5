package frames

import (
	"sort"

	"github.com/bnema/waypick/internal/choice"
	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/gfx"
	"github.com/bnema/waypick/internal/input"
	"github.com/bnema/waypick/internal/ui"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

const maxSelectorWidth = 720

// Selector is a scrollable, filterable list of choices. Enter submits the
// highlighted choice's ID, Escape clears the filter or cancels.
type Selector struct {
	style       Style
	title       string
	placeholder string

	choices []choice.Choice
	// view holds indices into choices in display order
	view     []int
	cursor   int
	offset   int
	hover    int
	filter   string
	dirty    bool
	selectID string

	width, height int
}

// NewSelector returns a selector over choices. The last choice marked
// Selected starts highlighted.
func NewSelector(choices ...choice.Choice) *Selector {
	s := &Selector{style: DefaultStyle(), hover: -1}
	for _, c := range choices {
		s.Add(c)
	}
	return s
}

func (s *Selector) ApplyTheme(theme config.Theme) { s.style = LoadStyle(theme) }

// SetTitle shows a heading above the list.
func (s *Selector) SetTitle(title string) { s.title = title }

// SetPlaceholder is shown while the list is empty.
func (s *Selector) SetPlaceholder(text string) { s.placeholder = text }

// Add appends c.
func (s *Selector) Add(c choice.Choice) {
	s.choices = append(s.choices, c)
	if c.Selected {
		s.selectID = c.ID
	}
	s.dirty = true
}

// Upsert adds c, or replaces the entry with the same ID when c is stronger.
// It reports whether anything changed.
func (s *Selector) Upsert(c choice.Choice) bool {
	for i := range s.choices {
		if s.choices[i].ID != c.ID {
			continue
		}
		if c.Strength <= s.choices[i].Strength {
			return false
		}
		c.Selected = s.choices[i].Selected
		s.choices[i] = c
		s.dirty = true
		return true
	}
	s.Add(c)
	return true
}

// Find returns the choice with id.
func (s *Selector) Find(id string) (choice.Choice, bool) {
	for _, c := range s.choices {
		if c.ID == id {
			return c, true
		}
	}
	return choice.Choice{}, false
}

// Choices returns every entry in insertion order.
func (s *Selector) Choices() []choice.Choice {
	return append([]choice.Choice(nil), s.choices...)
}

func (s *Selector) Len() int { return len(s.choices) }

// Filter is the current type-to-filter text.
func (s *Selector) Filter() string { return s.filter }

// SelectedIndex is the index into Choices of the highlighted entry, -1
// when nothing is shown.
func (s *Selector) SelectedIndex() int {
	s.refresh()
	if s.cursor < 0 || s.cursor >= len(s.view) {
		return -1
	}
	return s.view[s.cursor]
}

// Selected returns the highlighted entry.
func (s *Selector) Selected() (choice.Choice, bool) {
	i := s.SelectedIndex()
	if i < 0 {
		return choice.Choice{}, false
	}
	return s.choices[i], true
}

// Select highlights the entry with id.
func (s *Selector) Select(id string) {
	s.selectID = id
	s.dirty = true
}

// refresh rebuilds the view after the choices or filter changed, keeping
// the highlighted entry when it is still visible.
func (s *Selector) refresh() {
	if !s.dirty {
		return
	}
	s.dirty = false

	keep := s.selectID
	s.selectID = ""
	if keep == "" && s.cursor >= 0 && s.cursor < len(s.view) {
		keep = s.choices[s.view[s.cursor]].ID
	}

	s.view = s.view[:0]
	if s.filter == "" {
		for i := range s.choices {
			s.view = append(s.view, i)
		}
	} else {
		targets := make([]string, len(s.choices))
		for i, c := range s.choices {
			targets[i] = c.Display
		}
		ranks := fuzzy.RankFindNormalizedFold(s.filter, targets)
		sort.Stable(ranks)
		for _, r := range ranks {
			s.view = append(s.view, r.OriginalIndex)
		}
	}

	s.cursor = 0
	for i, idx := range s.view {
		if s.choices[idx].ID == keep {
			s.cursor = i
			break
		}
	}
	s.scrollTo(s.cursor)
}

func (s *Selector) move(delta int) {
	if len(s.view) == 0 {
		return
	}
	s.cursor = min(max(s.cursor+delta, 0), len(s.view)-1)
	s.scrollTo(s.cursor)
}

func (s *Selector) scrollTo(i int) {
	rows := s.style.MaxRows
	if i < s.offset {
		s.offset = i
	}
	if i >= s.offset+rows {
		s.offset = i - rows + 1
	}
	s.offset = max(0, min(s.offset, len(s.view)-rows))
}

func (s *Selector) setFilter(f string) {
	if f == s.filter {
		return
	}
	s.filter = f
	s.dirty = true
}

// handleKeys applies key presses and reports a final result, if any.
func (s *Selector) handleKeys(ctx *ui.Context) (ui.Result, bool) {
	if text := typed(ctx.Events); text != "" {
		s.setFilter(s.filter + text)
		s.refresh()
	}
	for _, e := range pressed(ctx.Events) {
		switch e.Key {
		case input.KeyUp:
			s.move(-1)
		case input.KeyDown:
			s.move(1)
		case input.KeyTab:
			if e.Mods.Shift {
				s.move(-1)
			} else {
				s.move(1)
			}
		case input.KeyP, input.KeyK:
			if e.Mods.Ctrl {
				s.move(-1)
			}
		case input.KeyN, input.KeyJ:
			if e.Mods.Ctrl {
				s.move(1)
			}
		case input.KeyPageUp:
			s.move(-s.style.MaxRows)
		case input.KeyPageDown:
			s.move(s.style.MaxRows)
		case input.KeyHome:
			s.move(-len(s.view))
		case input.KeyEnd:
			s.move(len(s.view))
		case input.KeyBackspace:
			if r := []rune(s.filter); len(r) > 0 {
				s.setFilter(string(r[:len(r)-1]))
				s.refresh()
			}
		case input.KeyU:
			if e.Mods.Ctrl {
				s.setFilter("")
				s.refresh()
			}
		case input.KeyEnter:
			if c, ok := s.Selected(); ok {
				return ui.Submitted(c.ID), true
			}
		case input.KeyEscape:
			if s.filter != "" {
				s.setFilter("")
				s.refresh()
				continue
			}
			return ui.Cancelled(), true
		}
	}
	return ui.Result{}, false
}

func (s *Selector) Render(ctx *ui.Context) ui.Result {
	s.refresh()
	c := ctx.Canvas
	st := s.style
	pad := st.Padding
	rowH := st.rowHeight(c)

	if res, done := s.handleKeys(ctx); done {
		return res
	}

	// layout
	top := pad
	if s.title != "" {
		top += rowH
	}
	if s.filter != "" {
		top += rowH
	}
	rows := min(len(s.view)-s.offset, st.MaxRows)
	if len(s.view) == 0 {
		rows = 1
	}

	// pointer
	s.hover = -1
	p := ctx.Pointer
	if p.Inside && p.Y >= float64(top) {
		row := int(p.Y-float64(top)) / rowH
		if row < rows && s.offset+row < len(s.view) {
			s.hover = s.offset + row
		}
	}
	if p.WheelY != 0 {
		step := 1
		if p.WheelY < 0 {
			step = -1
		}
		s.move(step)
	}
	if p.Clicked[input.ButtonLeft] && s.hover >= 0 {
		s.cursor = s.hover
		return ui.Submitted(s.choices[s.view[s.cursor]].ID)
	}

	// size
	textW := 0
	if s.title != "" {
		textW = c.TextWidth(s.title, gfx.Bold, st.FontSize)
	}
	for _, idx := range s.view {
		textW = max(textW, c.TextWidth(s.choices[idx].Display, gfx.Regular, st.FontSize))
	}
	if len(s.view) == 0 && s.placeholder != "" {
		textW = max(textW, c.TextWidth(s.placeholder, gfx.Regular, st.FontSize))
	}
	s.width = min(max(textW+pad*3, st.MinWidth), maxSelectorWidth)
	s.height = top + rows*rowH + pad

	// draw
	st.background(c)
	y := pad
	inner := s.width - pad*2
	if s.title != "" {
		c.Text(pad+pad/2, y+pad/2, c.TruncateText(s.title, gfx.Bold, st.FontSize, inner-pad), gfx.Bold, st.FontSize, st.Foreground)
		y += rowH
	}
	if s.filter != "" {
		c.Text(pad+pad/2, y+pad/2, c.TruncateText("› "+s.filter, gfx.Regular, st.FontSize, inner-pad), gfx.Regular, st.FontSize, st.Muted)
		y += rowH
	}
	if len(s.view) == 0 {
		text := s.placeholder
		if s.filter != "" {
			text = "No matches"
		}
		c.Text(pad+pad/2, y+pad/2, text, gfx.Regular, st.FontSize, st.Muted)
		return ui.Continued()
	}
	for i := s.offset; i < s.offset+rows; i++ {
		switch i {
		case s.cursor:
			c.FillRect(pad, y, inner, rowH, st.Active)
		case s.hover:
			c.FillRect(pad, y, inner, rowH, st.Hover)
		}
		label := c.TruncateText(s.choices[s.view[i]].Display, gfx.Regular, st.FontSize, inner-pad)
		c.Text(pad+pad/2, y+pad/2, label, gfx.Regular, st.FontSize, st.Foreground)
		y += rowH
	}
	return ui.Continued()
}

func (s *Selector) Size() (int, int) { return s.width, s.height }
