// Package ui drives the overlay: it pumps compositor events, renders one
// Frame per iteration and sequences Frames through a Flow.
package ui

import (
	"time"

	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/gfx"
	"github.com/bnema/waypick/internal/input"
)

// Action is what a Frame asks for after a render.
type Action int

const (
	Continue Action = iota
	Submit
	Cancel
)

func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case Submit:
		return "submit"
	case Cancel:
		return "cancel"
	}
	return "unknown"
}

// Result is the outcome of one render. Value is only meaningful with Submit.
type Result struct {
	Action Action
	Value  string
}

func Continued() Result { return Result{Action: Continue} }

func Submitted(value string) Result { return Result{Action: Submit, Value: value} }

func Cancelled() Result { return Result{Action: Cancel} }

// Done reports whether the frame is finished.
func (r Result) Done() bool { return r.Action != Continue }

// Context is everything a Frame sees during one render. Input events in
// Events were received before the render started.
type Context struct {
	Canvas  *gfx.Canvas
	Events  []input.Event
	Pointer input.PointerState
	Mods    input.Modifiers
	Now     time.Time
}

// KeyPressed reports whether a key-down (including repeats) for k is queued.
func (c *Context) KeyPressed(k input.Key) bool {
	for _, e := range c.Events {
		if e.Kind == input.KeyDownEvent && e.Key == k {
			return true
		}
	}
	return false
}

// Text concatenates queued text input.
func (c *Context) Text() string {
	var s string
	for _, e := range c.Events {
		if e.Kind == input.TextEvent {
			s += e.Text
		}
	}
	return s
}

// Frame is a single interactive unit.
type Frame interface {
	Render(ctx *Context) Result
	// Size is the desired logical size after the last render.
	Size() (width, height int)
}

// Themer is implemented by frames that read colours and metrics from the
// theme. ApplyTheme is called once before the first render.
type Themer interface {
	ApplyTheme(theme config.Theme)
}

// Centerer is implemented by frames that are placed in the middle of the
// output instead of at the cursor.
type Centerer interface {
	Centered() bool
}

// Flow sequences frames into one interaction.
type Flow interface {
	CurrentFrame() Frame
	// HandleResult consumes a Submit or Cancel and reports whether the
	// flow keeps running.
	HandleResult(r Result) bool
	Done() bool
	// Result is the final value, empty when the user cancelled.
	Result() string
}

// Poller is implemented by flows fed from background workers. Poll runs
// on the loop goroutine once per iteration, before rendering.
type Poller interface {
	Poll()
}
