// Package input turns wl_pointer and wl_keyboard events into abstract
// key, text and pointer state for the render loop.
package input

import (
	"unicode"
	"unicode/utf8"

	"github.com/bnema/waypick/internal/logger"
	"golang.org/x/sys/unix"
)

// EventKind distinguishes queued input events.
type EventKind int

const (
	KeyDownEvent EventKind = iota
	KeyUpEvent
	TextEvent
	ModifiersEvent
	FocusLostEvent
)

// Modifiers is the held state of the four tracked modifiers.
type Modifiers struct {
	Ctrl, Shift, Alt, Super bool
}

// Event is one abstract input event.
type Event struct {
	Kind   EventKind
	Key    Key
	Text   string
	Mods   Modifiers
	Repeat bool
}

// Linux input button codes.
const (
	ButtonLeft   uint32 = 0x110
	ButtonRight  uint32 = 0x111
	ButtonMiddle uint32 = 0x112
)

// PointerState is the latest pointer position plus whatever accumulated
// since the previous snapshot.
type PointerState struct {
	X, Y    float64
	Inside  bool
	Buttons map[uint32]bool
	// Clicked holds buttons pressed since the previous snapshot.
	Clicked map[uint32]bool
	WheelX  float64
	WheelY  float64
}

// Keymap is a compiled keymap.
type Keymap interface {
	KeycodeRange() (min, max uint32)
	NumLayouts(keycode uint32) uint32
	// Keysyms returns the level 0 keysyms of keycode in layout.
	Keysyms(keycode, layout uint32) []uint32
	// ModIndex resolves a modifier name such as "Control" or "Mod4".
	ModIndex(name string) (uint32, bool)
	Release()
}

// KeyState tracks pressed keys and modifier masks for one keymap.
type KeyState interface {
	UpdateKey(keycode uint32, pressed bool)
	UpdateMask(depressed, latched, locked, group uint32)
	Keysym(keycode uint32) uint32
	UTF8(keycode uint32) string
	Release()
}

// KeymapCompiler builds a keymap and a fresh state from xkb_v1 text.
type KeymapCompiler interface {
	Compile(keymap []byte) (Keymap, KeyState, error)
}

// wl_keyboard.keymap_format xkb_v1
const KeymapFormatXkbV1 uint32 = 1

// evdev scancodes are offset by 8 in xkb keycode space
const keycodeOffset = 8

// xkb modifier names
const (
	modNameCtrl  = "Control"
	modNameShift = "Shift"
	modNameAlt   = "Mod1"
	modNameSuper = "Mod4"
)

// Bridge holds keyboard and pointer state for a single seat. It is only
// touched from the dispatch goroutine.
type Bridge struct {
	compiler KeymapCompiler
	keymap   Keymap
	state    KeyState

	ctrlMask, shiftMask, altMask, superMask uint32
	mods                                    Modifiers

	repeatRate, repeatDelay int32

	pointer       PointerState
	width, height int
	exitRequested bool

	events []Event

	mapKeymap func(fd int, size uint32) ([]byte, func(), error)
	closeFD   func(fd int) error

	seat *seatAdapter
}

// NewBridge returns a bridge that compiles keymaps with compiler.
func NewBridge(compiler KeymapCompiler) *Bridge {
	return &Bridge{
		compiler:    compiler,
		repeatRate:  25,
		repeatDelay: 600,
		pointer: PointerState{
			Buttons: make(map[uint32]bool),
			Clicked: make(map[uint32]bool),
		},
		mapKeymap: mmapKeymap,
		closeFD:   unix.Close,
	}
}

func mmapKeymap(fd int, size uint32) ([]byte, func(), error) {
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	return data, func() {
		if err := unix.Munmap(data); err != nil {
			logger.Debug("Failed to unmap keymap", "error", err)
		}
	}, nil
}

// HasKeymap reports whether key events are currently interpreted.
func (b *Bridge) HasKeymap() bool {
	return b.keymap != nil && b.state != nil
}

// Events drains queued events.
func (b *Bridge) Events() []Event {
	out := b.events
	b.events = nil
	return out
}

func (b *Bridge) emit(e Event) {
	b.events = append(b.events, e)
}

// Modifiers returns the currently held modifiers.
func (b *Bridge) Modifiers() Modifiers { return b.mods }

// RepeatInfo returns the compositor's key repeat rate (per second) and
// delay (ms). A zero rate disables repeat.
func (b *Bridge) RepeatInfo() (rate, delay int32) {
	return b.repeatRate, b.repeatDelay
}

// SetBounds records the window's logical size for click-outside checks.
func (b *Bridge) SetBounds(width, height int) {
	b.width, b.height = width, height
}

// ExitRequested is set by a button press outside the window.
func (b *Bridge) ExitRequested() bool { return b.exitRequested }

// ResetExit clears a pending click-outside request.
func (b *Bridge) ResetExit() { b.exitRequested = false }

// releaseKeymap drops the state before the keymap it references.
func (b *Bridge) releaseKeymap() {
	if b.state != nil {
		b.state.Release()
		b.state = nil
	}
	if b.keymap != nil {
		b.keymap.Release()
		b.keymap = nil
	}
	b.ctrlMask, b.shiftMask, b.altMask, b.superMask = 0, 0, 0, 0
	b.mods = Modifiers{}
}

// HandleKeymap replaces the keymap with the one shared through fd. The
// fd is always closed. Any failure leaves the bridge without a keymap.
func (b *Bridge) HandleKeymap(format uint32, fd int, size uint32) {
	defer func() {
		if err := b.closeFD(fd); err != nil {
			logger.Debug("Failed to close keymap fd", "error", err)
		}
	}()

	b.releaseKeymap()

	if format != KeymapFormatXkbV1 {
		logger.Warn("Unsupported keymap format", "format", format)
		return
	}
	if b.compiler == nil {
		logger.Warn("No keymap compiler, keyboard input disabled")
		return
	}

	data, unmap, err := b.mapKeymap(fd, size)
	if err != nil {
		logger.Warn("Failed to map keymap", "error", err)
		return
	}
	defer unmap()

	keymap, state, err := b.compiler.Compile(data)
	if err != nil {
		logger.Warn("Failed to compile keymap", "error", err)
		return
	}
	b.keymap, b.state = keymap, state
	b.scanModifierMasks()
	logger.Debug("Keymap installed", "ctrl", b.ctrlMask, "shift", b.shiftMask, "alt", b.altMask, "super", b.superMask)
}

// scanModifierMasks finds which modifier each Control/Shift/Alt/Super key
// of the current keymap sets.
func (b *Bridge) scanModifierMasks() {
	mask := func(name string) uint32 {
		idx, ok := b.keymap.ModIndex(name)
		if !ok || idx >= 32 {
			return 0
		}
		return 1 << idx
	}

	lo, hi := b.keymap.KeycodeRange()
	for code := uint64(lo); code <= uint64(hi); code++ {
		kc := uint32(code)
		for layout := uint32(0); layout < b.keymap.NumLayouts(kc); layout++ {
			for _, sym := range b.keymap.Keysyms(kc, layout) {
				switch sym {
				case keysymControlL, keysymControlR:
					b.ctrlMask = mask(modNameCtrl)
				case keysymShiftL, keysymShiftR:
					b.shiftMask = mask(modNameShift)
				case keysymAltL, keysymAltR:
					b.altMask = mask(modNameAlt)
				case keysymSuperL, keysymSuperR:
					b.superMask = mask(modNameSuper)
				}
			}
		}
	}
}

// HandleKey processes a wl_keyboard.key event. Without a keymap the event
// is dropped.
func (b *Bridge) HandleKey(scancode uint32, pressed bool) {
	if !b.HasKeymap() {
		return
	}
	kc := scancode + keycodeOffset
	b.state.UpdateKey(kc, pressed)
	sym := b.state.Keysym(kc)

	if key, ok := KeyForKeysym(sym); ok {
		kind := KeyUpEvent
		if pressed {
			kind = KeyDownEvent
		}
		b.emit(Event{Kind: kind, Key: key, Mods: b.mods})
	}

	if pressed {
		if text := printable(b.state.UTF8(kc)); text != "" {
			b.emit(Event{Kind: TextEvent, Text: text, Mods: b.mods})
		}
	}
}

// printable drops control characters such as the "\r" xkb produces for
// Return.
func printable(s string) string {
	if s == "" || !utf8.ValidString(s) {
		return ""
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return ""
		}
	}
	return s
}

// HandleModifiers processes a wl_keyboard.modifiers event.
func (b *Bridge) HandleModifiers(depressed, latched, locked, group uint32) {
	if !b.HasKeymap() {
		return
	}
	b.state.UpdateMask(depressed, latched, locked, group)

	held := func(mask uint32) bool {
		return mask != 0 && (depressed&mask != 0 || latched&mask != 0 || locked&mask != 0)
	}
	b.mods = Modifiers{
		Ctrl:  held(b.ctrlMask),
		Shift: held(b.shiftMask),
		Alt:   held(b.altMask),
		Super: held(b.superMask),
	}
	b.emit(Event{Kind: ModifiersEvent, Mods: b.mods})
}

// HandleRepeatInfo records the repeat settings.
func (b *Bridge) HandleRepeatInfo(rate, delay int32) {
	b.repeatRate, b.repeatDelay = rate, delay
}

// HandleKeyboardLeave clears modifiers and stops any key repeat.
func (b *Bridge) HandleKeyboardLeave() {
	b.mods = Modifiers{}
	b.emit(Event{Kind: FocusLostEvent})
}

// HandlePointerEnter records the entry position.
func (b *Bridge) HandlePointerEnter(x, y float64) {
	b.pointer.X, b.pointer.Y = x, y
	b.pointer.Inside = true
}

// HandlePointerLeave marks the pointer as outside the surface.
func (b *Bridge) HandlePointerLeave() {
	b.pointer.Inside = false
}

// HandleMotion records the latest position.
func (b *Bridge) HandleMotion(x, y float64) {
	b.pointer.X, b.pointer.Y = x, y
}

// HandleButton updates the button vector. Any press outside the window
// requests exit.
func (b *Bridge) HandleButton(button uint32, pressed bool) {
	b.pointer.Buttons[button] = pressed
	if !pressed {
		return
	}
	b.pointer.Clicked[button] = true

	x, y := b.pointer.X, b.pointer.Y
	if x < 0 || y < 0 || x >= float64(b.width) || y >= float64(b.height) {
		logger.Debug("Click outside window", "x", x, "y", y, "button", button)
		b.exitRequested = true
	}
}

// HandleAxis accumulates scroll. Axis 0 is vertical.
func (b *Bridge) HandleAxis(axis uint32, value float64) {
	if axis == 0 {
		b.pointer.WheelY += value
	} else {
		b.pointer.WheelX += value
	}
}

// Pointer returns the pointer state and resets the per-frame click and
// wheel accumulators.
func (b *Bridge) Pointer() PointerState {
	snap := b.pointer
	snap.Buttons = make(map[uint32]bool, len(b.pointer.Buttons))
	for k, v := range b.pointer.Buttons {
		snap.Buttons[k] = v
	}
	b.pointer.Clicked = make(map[uint32]bool)
	b.pointer.WheelX, b.pointer.WheelY = 0, 0
	return snap
}

// Close releases the keymap and any seat devices.
func (b *Bridge) Close() {
	if b.seat != nil {
		b.seat.release()
		b.seat = nil
	}
	b.releaseKeymap()
}
