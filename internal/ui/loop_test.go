package ui

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/gfx"
	"github.com/bnema/waypick/internal/input"
	"github.com/bnema/waypick/internal/wl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDisplay struct {
	steps      []func()
	dispatches int
	scale      int
	scaleCh    chan int
	vw, vh     int
}

func newFakeDisplay(steps ...func()) *fakeDisplay {
	return &fakeDisplay{steps: steps, scale: 1, scaleCh: make(chan int, 1), vw: 1000, vh: 1000}
}

func (d *fakeDisplay) Dispatch() error {
	d.dispatches++
	if len(d.steps) == 0 {
		return errors.New("connection reset")
	}
	step := d.steps[0]
	d.steps = d.steps[1:]
	if step != nil {
		step()
	}
	return nil
}

func (d *fakeDisplay) MaxScale() int            { return d.scale }
func (d *fakeDisplay) ScaleChanged() <-chan int { return d.scaleCh }
func (d *fakeDisplay) Viewport() (int, int)     { return d.vw, d.vh }

type fakeWindow struct {
	configured bool
	shouldExit bool
	scale      int
	w, h       int
	x, y       int
}

func (w *fakeWindow) Configured() bool     { return w.configured }
func (w *fakeWindow) ShouldExit() bool     { return w.shouldExit }
func (w *fakeWindow) Scale() int           { return w.scale }
func (w *fakeWindow) Size() (int, int)     { return w.w, w.h }
func (w *fakeWindow) Position() (int, int) { return w.x, w.y }

func (w *fakeWindow) SetBufferScale(scale int) error {
	w.scale = scale
	return nil
}

func (w *fakeWindow) Resize(width, height int, d wl.Drawable) error {
	if !w.configured {
		return nil
	}
	w.w, w.h = width, height
	return d.Resize(width*w.scale, height*w.scale)
}

func (w *fakeWindow) Reposition(x, y, vw, vh, ww, wh int) error {
	w.x, w.y = wl.ClampPosition(x, y, vw, vh, ww, wh)
	return nil
}

type fakeDrawable struct {
	window  *fakeWindow
	w, h    int
	img     *image.RGBA
	pending bool
	busy    int
	swaps   int
	// swapsUnconfigured counts presents attempted before configure
	swapsUnconfigured int
}

func newFakeDrawable(win *fakeWindow) *fakeDrawable {
	d := &fakeDrawable{window: win}
	_ = d.Resize(win.w*win.scale, win.h*win.scale)
	return d
}

func (d *fakeDrawable) Resize(w, h int) error {
	d.w, d.h = w, h
	d.img = image.NewRGBA(image.Rect(0, 0, w, h))
	return nil
}

func (d *fakeDrawable) BufferSize() (int, int) { return d.w, d.h }
func (d *fakeDrawable) Image() *image.RGBA     { return d.img }
func (d *fakeDrawable) FramePending() bool     { return d.pending }

func (d *fakeDrawable) MakeCurrent() error {
	if d.busy > 0 {
		return gfx.ErrNoBuffer
	}
	return nil
}

func (d *fakeDrawable) SwapBuffers() error {
	if !d.window.configured {
		d.swapsUnconfigured++
	}
	d.swaps++
	d.pending = true
	return nil
}

type fakeInput struct {
	events []input.Event
	mods   input.Modifiers
	exit   bool
	bw, bh int
}

func (i *fakeInput) Events() []input.Event {
	out := i.events
	i.events = nil
	return out
}

func (i *fakeInput) Pointer() input.PointerState { return input.PointerState{} }
func (i *fakeInput) Modifiers() input.Modifiers  { return i.mods }
func (i *fakeInput) RepeatInfo() (int32, int32)  { return 25, 600 }
func (i *fakeInput) SetBounds(w, h int)          { i.bw, i.bh = w, h }
func (i *fakeInput) ExitRequested() bool         { return i.exit }
func (i *fakeInput) ResetExit()                  { i.exit = false }

type fakeFrame struct {
	results []Result
	w, h    int
	renders int
	scales  []int
	sizes   [][2]int
	events  [][]input.Event
}

func (f *fakeFrame) Render(ctx *Context) Result {
	f.renders++
	f.scales = append(f.scales, ctx.Canvas.Scale())
	w, h := ctx.Canvas.Size()
	f.sizes = append(f.sizes, [2]int{w, h})
	f.events = append(f.events, ctx.Events)
	if len(f.results) == 0 {
		return Continued()
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r
}

func (f *fakeFrame) Size() (int, int) { return f.w, f.h }

type countingThemer struct {
	fakeFrame
	applied int
}

func (f *countingThemer) ApplyTheme(config.Theme) { f.applied++ }

func newTestLoop(d *fakeDisplay, win *fakeWindow, in *fakeInput) (*Loop, *fakeDrawable) {
	draw := newFakeDrawable(win)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return NewLoop(d, win, draw, in, Options{Now: func() time.Time { return base }}), draw
}

func TestLoopWaitsForConfigure(t *testing.T) {
	win := &fakeWindow{scale: 1, w: 300, h: 200}
	d := newFakeDisplay(nil, nil, func() { win.configured = true })
	in := &fakeInput{}
	loop, draw := newTestLoop(d, win, in)
	frame := &fakeFrame{w: 300, h: 200, results: []Result{Submitted("a")}}

	res, reason, err := loop.Run(frame)
	require.NoError(t, err)

	assert.Equal(t, ExitFrame, reason)
	assert.Equal(t, Submitted("a"), res)
	assert.Equal(t, 3, d.dispatches, "dispatches until configured")
	assert.Equal(t, 1, frame.renders)
	assert.Equal(t, 1, draw.swaps)
	assert.Zero(t, draw.swapsUnconfigured)
}

func TestLoopNeverPresentsUnconfigured(t *testing.T) {
	win := &fakeWindow{scale: 1, w: 300, h: 200}
	d := newFakeDisplay(nil, nil, nil, func() { win.shouldExit = true })
	loop, draw := newTestLoop(d, win, &fakeInput{})
	frame := &fakeFrame{w: 300, h: 200}

	_, reason, err := loop.Run(frame)
	require.NoError(t, err)

	assert.Equal(t, ExitClosed, reason)
	assert.Zero(t, frame.renders)
	assert.Zero(t, draw.swaps)
}

func TestLoopAppliesScale(t *testing.T) {
	win := &fakeWindow{configured: true, scale: 1, w: 300, h: 200}
	d := newFakeDisplay()
	d.scale = 2
	d.scaleCh <- 2
	loop, draw := newTestLoop(d, win, &fakeInput{})
	frame := &fakeFrame{w: 300, h: 200, results: []Result{Submitted("x")}}

	_, _, err := loop.Run(frame)
	require.NoError(t, err)

	assert.Equal(t, 2, win.scale)
	w, h := draw.BufferSize()
	assert.Equal(t, 600, w)
	assert.Equal(t, 400, h)
	assert.Equal(t, []int{2}, frame.scales, "rendered at the new scale")
	assert.Equal(t, [][2]int{{300, 200}}, frame.sizes, "logical canvas size unchanged")
	assert.Empty(t, d.scaleCh, "notification consumed")
}

func TestLoopResizesAndRepositions(t *testing.T) {
	win := &fakeWindow{configured: true, scale: 1, w: 100, h: 100}
	d := newFakeDisplay()
	in := &fakeInput{}
	draw := newFakeDrawable(win)
	loop := NewLoop(d, win, draw, in, Options{X: 950, Y: 950})
	frame := &fakeFrame{w: 300, h: 200, results: []Result{Continued(), Submitted("done")}}

	res, _, err := loop.Run(frame)
	require.NoError(t, err)

	assert.Equal(t, "done", res.Value)
	assert.Equal(t, 2, frame.renders)
	assert.Equal(t, 1, draw.swaps, "the resized render is not presented")
	assert.Equal(t, 300, win.w)
	assert.Equal(t, 200, win.h)
	x, y := win.Position()
	assert.Equal(t, 700, x)
	assert.Equal(t, 800, y)
	assert.Equal(t, 300, in.bw)
	assert.Equal(t, 200, in.bh)
	assert.Equal(t, [][2]int{{100, 100}, {300, 200}}, frame.sizes)
}

func TestLoopMatchesCompositorSize(t *testing.T) {
	win := &fakeWindow{configured: true, scale: 1, w: 300, h: 200}
	d := newFakeDisplay()
	loop, draw := newTestLoop(d, win, &fakeInput{})
	// compositor forced a different size after the buffer was created
	win.w, win.h = 320, 240
	frame := &fakeFrame{w: 300, h: 200, results: []Result{Submitted("")}}

	_, _, err := loop.Run(frame)
	require.NoError(t, err)

	w, h := draw.BufferSize()
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)
}

func TestLoopClampsInitialPosition(t *testing.T) {
	// the frame already fits, so no resize ever happens
	win := &fakeWindow{configured: true, scale: 1, w: 300, h: 200}
	d := newFakeDisplay()
	draw := newFakeDrawable(win)
	loop := NewLoop(d, win, draw, &fakeInput{}, Options{X: 950, Y: 950})
	frame := &fakeFrame{w: 300, h: 200, results: []Result{Submitted("")}}

	_, _, err := loop.Run(frame)
	require.NoError(t, err)

	assert.Equal(t, 1, draw.swaps)
	x, y := win.Position()
	assert.Equal(t, 700, x)
	assert.Equal(t, 800, y)
}

func TestLoopClampsCompositorSize(t *testing.T) {
	win := &fakeWindow{configured: true, scale: 1, w: 300, h: 200}
	d := newFakeDisplay()
	draw := newFakeDrawable(win)
	loop := NewLoop(d, win, draw, &fakeInput{}, Options{X: 950, Y: 950})
	win.w, win.h = 320, 240
	frame := &fakeFrame{w: 300, h: 200, results: []Result{Submitted("")}}

	_, _, err := loop.Run(frame)
	require.NoError(t, err)

	x, y := win.Position()
	assert.Equal(t, 680, x)
	assert.Equal(t, 760, y)
}

func TestLoopExitConditions(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(win *fakeWindow, in *fakeInput, frame *fakeFrame) []func()
		wantReason ExitReason
		wantAction Action
		wantValue  string
	}{
		{
			name: "click outside",
			setup: func(win *fakeWindow, in *fakeInput, frame *fakeFrame) []func() {
				return []func(){func() { in.exit = true }}
			},
			wantReason: ExitClickOutside,
			wantAction: Cancel,
		},
		{
			name: "surface closed",
			setup: func(win *fakeWindow, in *fakeInput, frame *fakeFrame) []func() {
				return []func(){func() { win.shouldExit = true }}
			},
			wantReason: ExitClosed,
			wantAction: Cancel,
		},
		{
			name: "frame cancels",
			setup: func(win *fakeWindow, in *fakeInput, frame *fakeFrame) []func() {
				frame.results = []Result{Continued(), Cancelled()}
				return []func(){nil, nil}
			},
			wantReason: ExitFrame,
			wantAction: Cancel,
		},
		{
			name: "frame submits",
			setup: func(win *fakeWindow, in *fakeInput, frame *fakeFrame) []func() {
				frame.results = []Result{Continued(), Submitted("b")}
				return []func(){nil, nil}
			},
			wantReason: ExitFrame,
			wantAction: Submit,
			wantValue:  "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			win := &fakeWindow{configured: true, scale: 1, w: 300, h: 200}
			in := &fakeInput{}
			frame := &fakeFrame{w: 300, h: 200}
			d := newFakeDisplay()
			loop, draw := newTestLoop(d, win, in)
			draw.pending = true
			steps := tt.setup(win, in, frame)
			// every dispatch also delivers the frame callback
			for i, step := range steps {
				step := step
				steps[i] = func() {
					draw.pending = false
					if step != nil {
						step()
					}
				}
			}
			d.steps = steps

			res, reason, err := loop.Run(frame)
			require.NoError(t, err)
			assert.Equal(t, tt.wantReason, reason)
			assert.Equal(t, tt.wantAction, res.Action)
			assert.Equal(t, tt.wantValue, res.Value)
		})
	}
}

func TestLoopWaitsForFreeBuffer(t *testing.T) {
	win := &fakeWindow{configured: true, scale: 1, w: 300, h: 200}
	d := newFakeDisplay()
	loop, draw := newTestLoop(d, win, &fakeInput{})
	draw.busy = 1
	d.steps = []func(){func() { draw.busy = 0 }}
	frame := &fakeFrame{w: 300, h: 200, results: []Result{Submitted("ok")}}

	res, _, err := loop.Run(frame)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Value)
	assert.Equal(t, 1, d.dispatches, "dispatched to receive the buffer release")
	assert.Equal(t, 1, frame.renders)
}

func TestLoopDispatchError(t *testing.T) {
	win := &fakeWindow{scale: 1, w: 300, h: 200}
	loop, _ := newTestLoop(newFakeDisplay(), win, &fakeInput{})

	_, _, err := loop.Run(&fakeFrame{w: 300, h: 200})
	assert.Error(t, err)
}

func TestLoopDeliversEventsBeforeRender(t *testing.T) {
	win := &fakeWindow{configured: true, scale: 1, w: 300, h: 200}
	in := &fakeInput{}
	d := newFakeDisplay()
	loop, _ := newTestLoop(d, win, in)
	in.events = []input.Event{{Kind: input.KeyDownEvent, Key: input.KeyEnter}}
	frame := &fakeFrame{w: 300, h: 200, results: []Result{Submitted("")}}

	_, _, err := loop.Run(frame)
	require.NoError(t, err)
	require.Len(t, frame.events, 1)
	assert.Equal(t, input.KeyEnter, frame.events[0][0].Key)
}

// sequenceFlow runs its frames in order; Cancel on any frame but the
// first goes back one step.
type sequenceFlow struct {
	frames []*fakeFrame
	index  int
	values []string
	done   bool
	polls  int
}

func (f *sequenceFlow) CurrentFrame() Frame { return f.frames[f.index] }
func (f *sequenceFlow) Done() bool          { return f.done }
func (f *sequenceFlow) Poll()               { f.polls++ }

func (f *sequenceFlow) Result() string {
	if !f.done || len(f.values) < len(f.frames) {
		return ""
	}
	out := f.values[0]
	for _, v := range f.values[1:] {
		out += ":" + v
	}
	return out
}

func (f *sequenceFlow) HandleResult(r Result) bool {
	switch r.Action {
	case Submit:
		f.values = append(f.values, r.Value)
		if f.index == len(f.frames)-1 {
			f.done = true
			return false
		}
		f.index++
	case Cancel:
		if f.index == 0 {
			f.done = true
			return false
		}
		f.values = f.values[:len(f.values)-1]
		f.index--
	}
	return true
}

func TestRunFlow(t *testing.T) {
	t.Run("frames in sequence", func(t *testing.T) {
		win := &fakeWindow{configured: true, scale: 1, w: 300, h: 200}
		disp := newFakeDisplay()
		loop, draw := newTestLoop(disp, win, &fakeInput{})
		first := &fakeFrame{w: 300, h: 200, results: []Result{Submitted("home"), Submitted("work")}}
		second := &fakeFrame{w: 300, h: 200, results: []Result{Cancelled(), Submitted("secret")}}
		flow := &sequenceFlow{frames: []*fakeFrame{first, second}}

		// swaps set pending, so every later iteration dispatches once
		for i := 0; i < 8; i++ {
			disp.steps = append(disp.steps, func() { draw.pending = false })
		}

		got, err := loop.RunFlow(flow)
		require.NoError(t, err)
		assert.Equal(t, "work:secret", got)
		assert.Equal(t, 2, first.renders)
		assert.Equal(t, 2, second.renders)
		assert.Equal(t, 4, flow.polls)
	})

	t.Run("click outside ends the flow empty", func(t *testing.T) {
		win := &fakeWindow{configured: true, scale: 1, w: 300, h: 200}
		in := &fakeInput{}
		disp := newFakeDisplay(func() { in.exit = true })
		loop, draw := newTestLoop(disp, win, in)
		draw.pending = true
		flow := &sequenceFlow{frames: []*fakeFrame{{w: 300, h: 200}}}

		got, err := loop.RunFlow(flow)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.False(t, flow.done)
	})
}

func TestApplyThemeOnce(t *testing.T) {
	win := &fakeWindow{configured: true, scale: 1, w: 300, h: 200}
	d := newFakeDisplay()
	loop, draw := newTestLoop(d, win, &fakeInput{})
	frame := &countingThemer{fakeFrame: fakeFrame{w: 300, h: 200, results: []Result{Submitted("a"), Submitted("b")}}}

	_, _, err := loop.Run(frame)
	require.NoError(t, err)
	d.steps = []func(){func() { draw.pending = false }}
	_, _, err = loop.Run(frame)
	require.NoError(t, err)

	assert.Equal(t, 1, frame.applied)
}

func TestRepeater(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

	var r repeater
	r.observe([]input.Event{
		{Kind: input.KeyDownEvent, Key: input.KeyA},
		{Kind: input.TextEvent, Text: "a"},
	}, t0, 10, 500)

	assert.Empty(t, r.due(at(499)))
	got := r.due(at(500))
	require.Len(t, got, 2)
	assert.Equal(t, input.Event{Kind: input.KeyDownEvent, Key: input.KeyA, Repeat: true}, got[0])
	assert.Equal(t, "a", got[1].Text)
	assert.Len(t, r.due(at(700)), 4, "two more repeats with text")

	r.observe([]input.Event{{Kind: input.KeyUpEvent, Key: input.KeyA}}, at(710), 10, 500)
	assert.Empty(t, r.due(at(2000)))

	t.Run("modifiers do not repeat", func(t *testing.T) {
		var r repeater
		r.observe([]input.Event{{Kind: input.KeyDownEvent, Key: input.KeyShift}}, t0, 10, 500)
		assert.Empty(t, r.due(at(5000)))
	})

	t.Run("zero rate disables", func(t *testing.T) {
		var r repeater
		r.observe([]input.Event{{Kind: input.KeyDownEvent, Key: input.KeyDown}}, t0, 0, 500)
		assert.Empty(t, r.due(at(5000)))
	})

	t.Run("focus loss stops", func(t *testing.T) {
		var r repeater
		r.observe([]input.Event{{Kind: input.KeyDownEvent, Key: input.KeyDown}}, t0, 10, 500)
		r.observe([]input.Event{{Kind: input.FocusLostEvent}}, at(100), 10, 500)
		assert.Empty(t, r.due(at(5000)))
	})

	t.Run("stall does not replay backlog", func(t *testing.T) {
		var r repeater
		r.observe([]input.Event{{Kind: input.KeyDownEvent, Key: input.KeyDown}}, t0, 10, 500)
		assert.Len(t, r.due(at(60000)), maxRepeatBurst)
		assert.Empty(t, r.due(at(60050)))
		assert.Len(t, r.due(at(60100)), 1)
	})
}

type centeredFrame struct{ fakeFrame }

func (f *centeredFrame) Centered() bool { return true }

func TestLoopCentersFrames(t *testing.T) {
	win := &fakeWindow{configured: true, scale: 1, w: 100, h: 100}
	d := newFakeDisplay()
	draw := newFakeDrawable(win)
	loop := NewLoop(d, win, draw, &fakeInput{}, Options{X: 10, Y: 10})
	frame := &centeredFrame{fakeFrame{w: 800, h: 265, results: []Result{Continued(), Cancelled()}}}

	_, _, err := loop.Run(frame)
	require.NoError(t, err)
	x, y := win.Position()
	assert.Equal(t, 100, x)
	assert.Equal(t, 367, y)
}
