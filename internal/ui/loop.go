package ui

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/gfx"
	"github.com/bnema/waypick/internal/input"
	"github.com/bnema/waypick/internal/logger"
	"github.com/bnema/waypick/internal/wl"
)

// Display is the compositor connection as seen by the loop.
type Display interface {
	// Dispatch blocks until one message has been handled.
	Dispatch() error
	MaxScale() int
	ScaleChanged() <-chan int
	Viewport() (width, height int)
}

// Window is the overlay surface.
type Window interface {
	Configured() bool
	ShouldExit() bool
	Scale() int
	Size() (width, height int)
	SetBufferScale(scale int) error
	Resize(width, height int, d wl.Drawable) error
	Reposition(x, y, viewportW, viewportH, windowW, windowH int) error
}

// Drawable is the presentable buffer bound to the window. Sizes are
// physical pixels.
type Drawable interface {
	Resize(width, height int) error
	BufferSize() (width, height int)
	MakeCurrent() error
	Image() *image.RGBA
	SwapBuffers() error
	FramePending() bool
}

// Input is the seat state fed by the dispatcher.
type Input interface {
	Events() []input.Event
	Pointer() input.PointerState
	Modifiers() input.Modifiers
	RepeatInfo() (rate, delay int32)
	SetBounds(width, height int)
	ExitRequested() bool
	ResetExit()
}

// ExitReason says why a loop stopped.
type ExitReason int

const (
	ExitFrame ExitReason = iota
	ExitClickOutside
	ExitClosed
)

func (r ExitReason) String() string {
	switch r {
	case ExitFrame:
		return "frame"
	case ExitClickOutside:
		return "click-outside"
	case ExitClosed:
		return "closed"
	}
	return "unknown"
}

// Options configures a Loop.
type Options struct {
	Fonts *gfx.Fonts
	Theme config.Theme
	// X and Y are the desired top-left corner, clamped to the viewport.
	X, Y int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Loop renders frames on one window until they finish. It is not safe for
// concurrent use; everything runs on the caller's goroutine.
type Loop struct {
	display  Display
	window   Window
	drawable Drawable
	input    Input
	opts     Options

	requestedW, requestedH int
	stalled                bool
	themed                 map[Frame]bool
	repeat                 repeater

	// size the window was last clamped into the viewport at
	placed           bool
	placedW, placedH int
}

// NewLoop binds a loop to an already created window and drawable.
func NewLoop(display Display, window Window, drawable Drawable, in Input, opts Options) *Loop {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	w, h := window.Size()
	in.SetBounds(w, h)
	return &Loop{
		display:    display,
		window:     window,
		drawable:   drawable,
		input:      in,
		opts:       opts,
		requestedW: w,
		requestedH: h,
		themed:     make(map[Frame]bool),
	}
}

// Run renders frame until it submits or cancels, the user clicks outside
// or the compositor closes the surface.
func (l *Loop) Run(frame Frame) (Result, ExitReason, error) {
	return l.run(frame, nil)
}

// RunFlow drives flow to completion and returns its result. Clicking
// outside or a closed surface ends the flow with an empty result.
func (l *Loop) RunFlow(flow Flow) (string, error) {
	poller, _ := flow.(Poller)
	for !flow.Done() {
		frame := flow.CurrentFrame()
		if frame == nil {
			break
		}
		res, reason, err := l.run(frame, poller)
		if err != nil {
			return "", err
		}
		if reason != ExitFrame {
			logger.Debug("Flow aborted", "reason", reason)
			return "", nil
		}
		if !flow.HandleResult(res) {
			break
		}
	}
	return flow.Result(), nil
}

func (l *Loop) run(frame Frame, poller Poller) (Result, ExitReason, error) {
	if t, ok := frame.(Themer); ok && !l.themed[frame] {
		t.ApplyTheme(l.opts.Theme)
		l.themed[frame] = true
	}
	l.input.ResetExit()
	l.repeat.stop()
	l.placed = false

	for {
		// 1. pump; blocks only when there is nothing to draw yet
		if !l.window.Configured() || l.drawable.FramePending() || l.stalled {
			if err := l.display.Dispatch(); err != nil {
				return Cancelled(), ExitClosed, err
			}
		}
		if reason, ok := l.exitRequested(); ok {
			return Cancelled(), reason, nil
		}

		// 2. nothing may be presented before the first configure
		if !l.window.Configured() || l.drawable.FramePending() {
			continue
		}

		// 3. scale
		if err := l.applyScale(); err != nil {
			return Cancelled(), ExitFrame, err
		}
		if err := l.matchBuffer(); err != nil {
			return Cancelled(), ExitFrame, err
		}
		if err := l.place(frame); err != nil {
			return Cancelled(), ExitFrame, err
		}

		if err := l.drawable.MakeCurrent(); err != nil {
			if errors.Is(err, gfx.ErrNoBuffer) {
				l.stalled = true
				continue
			}
			return Cancelled(), ExitFrame, fmt.Errorf("make current: %w", err)
		}
		l.stalled = false

		if poller != nil {
			poller.Poll()
		}

		// 4. render
		res := frame.Render(l.context())

		// 5. follow the frame's size
		resized, err := l.follow(frame)
		if err != nil {
			return Cancelled(), ExitFrame, err
		}

		// 6. present; a resized buffer is redrawn next iteration
		if !resized {
			if err := l.drawable.SwapBuffers(); err != nil {
				if !errors.Is(err, gfx.ErrNoBuffer) {
					return Cancelled(), ExitFrame, fmt.Errorf("swap buffers: %w", err)
				}
				l.stalled = true
			}
		}

		// 7. terminate
		if res.Done() {
			return res, ExitFrame, nil
		}
		if reason, ok := l.exitRequested(); ok {
			return Cancelled(), reason, nil
		}
	}
}

func (l *Loop) exitRequested() (ExitReason, bool) {
	switch {
	case l.window.ShouldExit():
		return ExitClosed, true
	case l.input.ExitRequested():
		return ExitClickOutside, true
	}
	return ExitFrame, false
}

// applyScale keeps the surface and the buffer on the max output scale.
func (l *Loop) applyScale() error {
	select {
	case scale := <-l.display.ScaleChanged():
		logger.Debug("Output scale changed", "scale", scale)
	default:
	}
	scale := l.display.MaxScale()
	if scale == l.window.Scale() {
		return nil
	}
	if err := l.window.SetBufferScale(scale); err != nil {
		return err
	}
	w, h := l.window.Size()
	if err := l.drawable.Resize(w*scale, h*scale); err != nil {
		return fmt.Errorf("failed to resize buffer: %w", err)
	}
	logger.Debug("Applied buffer scale", "scale", scale, "width", w, "height", h)
	return nil
}

// matchBuffer resizes the drawable when the compositor picked a size we
// did not ask for.
func (l *Loop) matchBuffer() error {
	w, h := l.window.Size()
	scale := l.window.Scale()
	bw, bh := l.drawable.BufferSize()
	if bw == w*scale && bh == h*scale {
		return nil
	}
	logger.Debug("Buffer size mismatch", "buffer_width", bw, "buffer_height", bh, "width", w, "height", h)
	l.input.SetBounds(w, h)
	if err := l.drawable.Resize(w*scale, h*scale); err != nil {
		return fmt.Errorf("failed to resize buffer: %w", err)
	}
	return nil
}

// follow resizes the window when the frame wants a new size.
func (l *Loop) follow(frame Frame) (bool, error) {
	fw, fh := frame.Size()
	if fw <= 0 || fh <= 0 || (fw == l.requestedW && fh == l.requestedH) {
		return false, nil
	}
	l.requestedW, l.requestedH = fw, fh
	if err := l.window.Resize(fw, fh, l.drawable); err != nil {
		return false, err
	}
	l.input.SetBounds(fw, fh)
	if err := l.place(frame); err != nil {
		return false, err
	}
	logger.Debug("Window resized", "width", fw, "height", fh)
	return true, nil
}

// place clamps the window into the viewport. It runs once per frame after
// configure and again whenever the negotiated size changes.
func (l *Loop) place(frame Frame) error {
	w, h := l.window.Size()
	if l.placed && w == l.placedW && h == l.placedH {
		return nil
	}
	vw, vh := l.display.Viewport()
	x, y := l.opts.X, l.opts.Y
	if c, ok := frame.(Centerer); ok && c.Centered() {
		x, y = (vw-w)/2, (vh-h)/2
	}
	if err := l.window.Reposition(x, y, vw, vh, w, h); err != nil {
		return err
	}
	l.placed, l.placedW, l.placedH = true, w, h
	return nil
}

func (l *Loop) context() *Context {
	now := l.opts.Now()
	events := l.input.Events()
	rate, delay := l.input.RepeatInfo()
	l.repeat.observe(events, now, rate, delay)
	events = append(events, l.repeat.due(now)...)

	return &Context{
		Canvas:  gfx.NewCanvas(l.drawable.Image(), l.window.Scale(), l.opts.Fonts),
		Events:  events,
		Pointer: l.input.Pointer(),
		Mods:    l.input.Modifiers(),
		Now:     now,
	}
}
