package frames

import (
	"context"
	"image"
	"math"
	"strconv"

	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/custommenu"
	"github.com/bnema/waypick/internal/gfx"
	"github.com/bnema/waypick/internal/input"
	"github.com/bnema/waypick/internal/logger"
	"github.com/bnema/waypick/internal/ui"
)

const (
	customDefaultWidth = 400
	sliderSteps        = 20
	separatorHeight    = 9
)

// target is one focusable row: a widget, or one item of a list.
type target struct {
	widget int
	item   int
}

type hitBox struct {
	rect  image.Rectangle
	focus int
}

// widgetState is the mutable value behind a widget.
type widgetState struct {
	input   *TextInput
	checked bool
	value   float64
	index   int
	// moved is set while a slider has an unreported change
	moved bool
}

// Custom renders a menu loaded from YAML. Activating a widget runs its
// action; execute actions go through the runner.
type Custom struct {
	style Style
	ctx   context.Context
	menu  *custommenu.Menu
	run   custommenu.Runner

	states  []widgetState
	targets []target
	focus   int
	hover   int
	hits    []hitBox
	dragged bool
	err     string

	width, height int
}

// NewCustom builds a frame for menu. A nil runner uses custommenu.Exec.
func NewCustom(ctx context.Context, menu *custommenu.Menu, run custommenu.Runner) *Custom {
	if run == nil {
		run = custommenu.Exec
	}
	c := &Custom{style: DefaultStyle(), ctx: ctx, menu: menu, run: run, hover: -1}
	c.states = make([]widgetState, len(menu.Widgets))
	for i, w := range menu.Widgets {
		st := &c.states[i]
		switch w.Type {
		case custommenu.WidgetInput:
			st.input = NewTextInput(w.Hint, w.Password)
		case custommenu.WidgetCheckbox:
			st.checked = w.Checked
		case custommenu.WidgetSlider:
			st.value = clampFloat(w.Value, w.Min, w.Max)
		case custommenu.WidgetCombo:
			st.index = w.Index
		}
		switch w.Type {
		case custommenu.WidgetList:
			for j, item := range w.Items {
				if item.Selected {
					c.focus = len(c.targets)
				}
				c.targets = append(c.targets, target{widget: i, item: j})
			}
		case custommenu.WidgetButton, custommenu.WidgetInput, custommenu.WidgetCheckbox,
			custommenu.WidgetSlider, custommenu.WidgetCombo:
			c.targets = append(c.targets, target{widget: i, item: -1})
		}
	}
	return c
}

func (c *Custom) ApplyTheme(theme config.Theme) {
	c.style = LoadStyle(theme)
	for i := range c.states {
		if c.states[i].input != nil {
			c.states[i].input.ApplyTheme(theme)
		}
	}
}

// Menu is the menu being shown.
func (c *Custom) Menu() *custommenu.Menu { return c.menu }

// Error is the message left by the last failed command.
func (c *Custom) Error() string { return c.err }

// Checked reports the state of the checkbox at widget index i.
func (c *Custom) Checked(i int) bool { return c.states[i].checked }

// SliderValue returns the value of the slider at widget index i.
func (c *Custom) SliderValue(i int) float64 { return c.states[i].value }

// ComboIndex returns the selected option of the combo at widget index i.
func (c *Custom) ComboIndex(i int) int { return c.states[i].index }

// Focused returns the widget and list item that have focus. item is -1
// for widgets other than lists.
func (c *Custom) Focused() (widget, item int, ok bool) {
	if c.focus < 0 || c.focus >= len(c.targets) {
		return 0, 0, false
	}
	t := c.targets[c.focus]
	return t.widget, t.item, true
}

func (c *Custom) moveFocus(delta int) {
	if n := len(c.targets); n > 0 {
		c.focus = ((c.focus+delta)%n + n) % n
	}
}

func (c *Custom) focusedInput() *TextInput {
	w, _, ok := c.Focused()
	if !ok {
		return nil
	}
	return c.states[w].input
}

// tokens returns the substitution values of widget w.
func (c *Custom) tokens(w, item int) custommenu.Tokens {
	widget := c.menu.Widgets[w]
	st := c.states[w]
	switch widget.Type {
	case custommenu.WidgetList:
		return custommenu.Tokens{Value: widget.Items[item].ID, Index: strconv.Itoa(item)}
	case custommenu.WidgetInput:
		return custommenu.Tokens{Value: st.input.Value()}
	case custommenu.WidgetCheckbox:
		state := onOff(st.checked)
		return custommenu.Tokens{Value: state, State: state}
	case custommenu.WidgetSlider:
		return custommenu.Tokens{Value: formatValue(st.value)}
	case custommenu.WidgetCombo:
		idx := strconv.Itoa(st.index)
		return custommenu.Tokens{Value: idx, Index: idx}
	}
	return custommenu.Tokens{}
}

func (c *Custom) actionOf(w, item int) custommenu.Action {
	widget := c.menu.Widgets[w]
	if widget.Type == custommenu.WidgetList {
		return widget.Items[item].Action
	}
	return widget.Action
}

// perform runs a and reports a final result, if any.
func (c *Custom) perform(a custommenu.Action, tok custommenu.Tokens) (ui.Result, bool) {
	switch a.Type {
	case custommenu.ActionExecute:
		cmd := custommenu.ReplaceTokens(a.Command, tok)
		logger.Debug("Running menu command", "command", cmd)
		if err := c.run(c.ctx, cmd); err != nil {
			logger.Warn("Menu command failed", "command", cmd, "err", err)
			c.err = err.Error()
			return ui.Result{}, false
		}
		c.err = ""
		if a.ClosesOnSuccess() {
			return ui.Submitted(cmd), true
		}
	case custommenu.ActionSubmit:
		// a widget's own value wins over the configured one
		if tok.Value != "" {
			return ui.Submitted(tok.Value), true
		}
		return ui.Submitted(custommenu.ReplaceTokens(a.Value, tok)), true
	case custommenu.ActionSubmenu:
		return ui.Submitted(custommenu.SubmenuPrefix + a.Path), true
	case custommenu.ActionBack:
		return ui.Submitted(custommenu.BackMarker), true
	default:
		return ui.Cancelled(), true
	}
	return ui.Result{}, false
}

// activate handles Enter, Space or a click on the focused target.
func (c *Custom) activate() (ui.Result, bool) {
	w, item, ok := c.Focused()
	if !ok {
		return ui.Result{}, false
	}
	widget := c.menu.Widgets[w]
	switch widget.Type {
	case custommenu.WidgetCheckbox:
		c.states[w].checked = !c.states[w].checked
	case custommenu.WidgetSlider:
		c.states[w].moved = false
	}
	return c.perform(c.actionOf(w, item), c.tokens(w, item))
}

// adjust moves the focused slider or combo by dir steps.
func (c *Custom) adjust(dir int) (ui.Result, bool) {
	w, _, ok := c.Focused()
	if !ok {
		return ui.Result{}, false
	}
	widget := c.menu.Widgets[w]
	st := &c.states[w]
	switch widget.Type {
	case custommenu.WidgetSlider:
		step := (widget.Max - widget.Min) / sliderSteps
		next := clampFloat(st.value+float64(dir)*step, widget.Min, widget.Max)
		if next == st.value {
			return ui.Result{}, false
		}
		st.value = next
		if widget.Action.Trigger == custommenu.TriggerRelease {
			st.moved = true
			return ui.Result{}, false
		}
		return c.perform(widget.Action, c.tokens(w, -1))
	case custommenu.WidgetCombo:
		if len(widget.Options) == 0 {
			return ui.Result{}, false
		}
		n := len(widget.Options)
		st.index = ((st.index+dir)%n + n) % n
		if widget.Action.Trigger == custommenu.TriggerChange {
			return c.perform(widget.Action, c.tokens(w, -1))
		}
	}
	return ui.Result{}, false
}

// release reports sliders whose change waited for the key or button to
// come up.
func (c *Custom) release() (ui.Result, bool) {
	for i := range c.states {
		if !c.states[i].moved {
			continue
		}
		c.states[i].moved = false
		if res, done := c.perform(c.menu.Widgets[i].Action, c.tokens(i, -1)); done {
			return res, true
		}
	}
	return ui.Result{}, false
}

func (c *Custom) shortcut(e input.Event) (custommenu.Action, bool) {
	for _, s := range c.menu.Shortcuts {
		if s.Combo.Key == e.Key && s.Combo.Ctrl == e.Mods.Ctrl &&
			s.Combo.Shift == e.Mods.Shift && s.Combo.Alt == e.Mods.Alt {
			return s.Action, true
		}
	}
	return custommenu.Action{}, false
}

func (c *Custom) handleKeys(ctx *ui.Context) (ui.Result, bool) {
	for _, e := range ctx.Events {
		field := c.focusedInput()
		switch e.Kind {
		case input.TextEvent:
			if field != nil && !e.Mods.Ctrl && !e.Mods.Alt {
				field.insert(e.Text)
			}
			continue
		case input.KeyUpEvent:
			if e.Key == input.KeyLeft || e.Key == input.KeyRight {
				if res, done := c.release(); done {
					return res, true
				}
			}
			continue
		case input.KeyDownEvent:
		default:
			continue
		}

		if a, ok := c.shortcut(e); ok {
			var tok custommenu.Tokens
			if w, item, ok := c.Focused(); ok {
				tok = c.tokens(w, item)
			}
			if res, done := c.perform(a, tok); done {
				return res, true
			}
			continue
		}

		switch e.Key {
		case input.KeyTab:
			if e.Mods.Shift {
				c.moveFocus(-1)
			} else {
				c.moveFocus(1)
			}
		case input.KeyUp:
			c.moveFocus(-1)
		case input.KeyDown:
			c.moveFocus(1)
		case input.KeyEscape:
			return ui.Cancelled(), true
		case input.KeyEnter:
			if res, done := c.activate(); done {
				return res, true
			}
		case input.KeySpace:
			if field == nil {
				if res, done := c.activate(); done {
					return res, true
				}
			}
		case input.KeyLeft, input.KeyRight:
			if field != nil {
				field.edit(e)
				continue
			}
			dir := 1
			if e.Key == input.KeyLeft {
				dir = -1
			}
			if res, done := c.adjust(dir); done {
				return res, true
			}
		default:
			if field != nil {
				field.edit(e)
			}
		}
	}
	return ui.Result{}, false
}

func (c *Custom) handlePointer(ctx *ui.Context) (ui.Result, bool) {
	p := ctx.Pointer
	c.hover = -1
	pt := image.Pt(int(p.X), int(p.Y))
	for _, h := range c.hits {
		if p.Inside && pt.In(h.rect) {
			c.hover = h.focus
			break
		}
	}
	if c.dragged && !p.Buttons[input.ButtonLeft] {
		c.dragged = false
		if res, done := c.release(); done {
			return res, true
		}
	}
	if !p.Clicked[input.ButtonLeft] || c.hover < 0 {
		return ui.Result{}, false
	}
	c.focus = c.hover
	t := c.targets[c.focus]
	widget := c.menu.Widgets[t.widget]
	switch widget.Type {
	case custommenu.WidgetInput:
		return ui.Result{}, false
	case custommenu.WidgetCombo:
		return c.adjust(1)
	case custommenu.WidgetSlider:
		for _, h := range c.hits {
			if h.focus != c.focus || h.rect.Dx() == 0 {
				continue
			}
			frac := float64(pt.X-h.rect.Min.X) / float64(h.rect.Dx())
			st := &c.states[t.widget]
			st.value = clampFloat(widget.Min+frac*(widget.Max-widget.Min), widget.Min, widget.Max)
			if widget.Action.Trigger == custommenu.TriggerRelease {
				st.moved, c.dragged = true, true
				return ui.Result{}, false
			}
			return c.perform(widget.Action, c.tokens(t.widget, -1))
		}
		return ui.Result{}, false
	}
	return c.activate()
}

func (c *Custom) Render(ctx *ui.Context) ui.Result {
	if res, done := c.handleKeys(ctx); done {
		return res
	}
	if res, done := c.handlePointer(ctx); done {
		return res
	}

	cv := ctx.Canvas
	st := c.style
	pad := st.Padding
	rowH := st.rowHeight(cv)
	lineH := cv.LineHeight(gfx.Regular, st.FontSize)

	c.width = customDefaultWidth
	if c.menu.Width > 0 {
		c.width = c.menu.Width
	}
	inner := c.width - pad*2

	st.background(cv)
	c.hits = c.hits[:0]
	y := pad
	if c.menu.Title != "" {
		cv.Text(pad+pad/2, y+pad/2, cv.TruncateText(c.menu.Title, gfx.Bold, st.FontSize, inner-pad), gfx.Bold, st.FontSize, st.Foreground)
		y += rowH
	}

	focusIdx := 0
	row := func(label string, weight gfx.Weight, muted, bg bool) {
		r := image.Rect(pad, y, pad+inner, y+rowH)
		if bg {
			switch focusIdx {
			case c.focus:
				cv.FillRect(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), st.Active)
			case c.hover:
				cv.FillRect(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), st.Hover)
			}
			c.hits = append(c.hits, hitBox{rect: r, focus: focusIdx})
			focusIdx++
		}
		fg := st.Foreground
		if muted {
			fg = st.Muted
		}
		cv.Text(pad+pad/2, y+pad/2, cv.TruncateText(label, weight, st.FontSize, inner-pad), weight, st.FontSize, fg)
		y += rowH
	}

	for i, w := range c.menu.Widgets {
		state := &c.states[i]
		switch w.Type {
		case custommenu.WidgetText:
			weight := gfx.Regular
			if w.Bold {
				weight = gfx.Bold
			}
			row(w.Content, weight, w.Italic, false)
		case custommenu.WidgetSeparator:
			cv.FillRect(pad, y+separatorHeight/2, inner, 1, st.Border)
			y += separatorHeight
		case custommenu.WidgetButton:
			row(w.Label, gfx.Regular, false, true)
		case custommenu.WidgetList:
			for _, item := range w.Items {
				row(item.Label, gfx.Regular, false, true)
			}
		case custommenu.WidgetCheckbox:
			mark := "[ ] "
			if state.checked {
				mark = "[x] "
			}
			row(mark+w.Label, gfx.Regular, false, true)
		case custommenu.WidgetCombo:
			var opt string
			if state.index < len(w.Options) {
				opt = w.Options[state.index]
			}
			row(w.Label+": ‹ "+opt+" ›", gfx.Regular, false, true)
		case custommenu.WidgetSlider:
			top := y
			row(w.Label+": "+formatValue(state.value), gfx.Regular, false, true)
			barX, barW := pad+pad/2, inner-pad
			frac := 0.0
			if w.Max > w.Min {
				frac = (state.value - w.Min) / (w.Max - w.Min)
			}
			cv.FillRect(barX, y, barW, 4, st.Border)
			cv.FillRect(barX, y, int(float64(barW)*frac), 4, st.Foreground)
			// clicks on the bar set the value
			c.hits[len(c.hits)-1].rect = image.Rect(barX, top, barX+barW, y+pad)
			y += pad
		case custommenu.WidgetInput:
			focused := focusIdx == c.focus
			r := image.Rect(pad, y, pad+inner, y+lineH+pad)
			border := st.Border
			if focused {
				border = st.Active
			}
			cv.StrokeRect(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), 1, border)
			c.hits = append(c.hits, hitBox{rect: r, focus: focusIdx})
			focusIdx++
			text, col := state.input.display(), st.Foreground
			if text == "" {
				text, col = w.Hint, st.Muted
			}
			cv.Text(pad+pad/2, y+pad/2, cv.TruncateText(text, gfx.Regular, st.FontSize, inner-pad), gfx.Regular, st.FontSize, col)
			if focused {
				caretX := pad + pad/2 + cv.TextWidth(state.input.displayPrefix(), gfx.Regular, st.FontSize)
				cv.FillRect(min(caretX, pad+inner-1), y+pad/2, 1, lineH, st.Foreground)
			}
			y += lineH + pad*2
		}
	}

	if c.err != "" {
		cv.Text(pad+pad/2, y+pad/2, cv.TruncateText(c.err, gfx.Regular, st.FontSize, inner-pad), gfx.Regular, st.FontSize, st.Error)
		y += rowH
	}

	c.height = y + pad
	if c.menu.Width > 0 && c.menu.Height > 0 {
		c.height = c.menu.Height
	}
	return ui.Continued()
}

func (c *Custom) Size() (int, int) { return c.width, c.height }

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func formatValue(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
