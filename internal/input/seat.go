package input

import (
	"github.com/bnema/waypick/internal/logger"
	"github.com/bnema/waypick/internal/wl"
	"github.com/rajveermalviya/go-wayland/wayland/client"
)

// seatAdapter forwards go-wayland seat device events to a Bridge.
type seatAdapter struct {
	bridge   *Bridge
	seat     *client.Seat
	version  uint32
	pointer  *client.Pointer
	keyboard *client.Keyboard
}

// AttachSeat listens for capability changes on seat and wires pointer and
// keyboard events into b. Call it before the seat's first events are
// dispatched. Devices share the seat's bound version.
func (b *Bridge) AttachSeat(seat *client.Seat, version uint32) {
	a := &seatAdapter{bridge: b, seat: seat, version: version}
	b.seat = a
	seat.SetCapabilitiesHandler(func(e client.SeatCapabilitiesEvent) {
		a.capabilities(e.Capabilities)
	})
}

func (a *seatAdapter) capabilities(caps uint32) {
	hasPointer := caps&uint32(client.SeatCapabilityPointer) != 0
	hasKeyboard := caps&uint32(client.SeatCapabilityKeyboard) != 0
	logger.Debug("Seat capabilities", "pointer", hasPointer, "keyboard", hasKeyboard)

	switch {
	case hasPointer && a.pointer == nil:
		a.attachPointer()
	case !hasPointer && a.pointer != nil:
		a.releasePointer()
	}

	switch {
	case hasKeyboard && a.keyboard == nil:
		a.attachKeyboard()
	case !hasKeyboard && a.keyboard != nil:
		a.releaseKeyboard()
	}
}

func (a *seatAdapter) attachPointer() {
	pointer, err := a.seat.GetPointer()
	if err != nil {
		logger.Warn("Failed to get pointer", "error", err)
		return
	}
	a.pointer = pointer
	b := a.bridge

	pointer.SetEnterHandler(func(e client.PointerEnterEvent) {
		b.HandlePointerEnter(e.SurfaceX, e.SurfaceY)
	})
	pointer.SetLeaveHandler(func(client.PointerLeaveEvent) {
		b.HandlePointerLeave()
	})
	pointer.SetMotionHandler(func(e client.PointerMotionEvent) {
		b.HandleMotion(e.SurfaceX, e.SurfaceY)
	})
	pointer.SetButtonHandler(func(e client.PointerButtonEvent) {
		b.HandleButton(e.Button, e.State == uint32(client.PointerButtonStatePressed))
	})
	pointer.SetAxisHandler(func(e client.PointerAxisEvent) {
		b.HandleAxis(e.Axis, e.Value)
	})
}

func (a *seatAdapter) attachKeyboard() {
	keyboard, err := a.seat.GetKeyboard()
	if err != nil {
		logger.Warn("Failed to get keyboard", "error", err)
		return
	}
	a.keyboard = keyboard
	b := a.bridge

	keyboard.SetKeymapHandler(func(e client.KeyboardKeymapEvent) {
		b.HandleKeymap(e.Format, e.Fd, e.Size)
	})
	keyboard.SetKeyHandler(func(e client.KeyboardKeyEvent) {
		b.HandleKey(e.Key, e.State == uint32(client.KeyboardKeyStatePressed))
	})
	keyboard.SetModifiersHandler(func(e client.KeyboardModifiersEvent) {
		b.HandleModifiers(e.ModsDepressed, e.ModsLatched, e.ModsLocked, e.Group)
	})
	keyboard.SetRepeatInfoHandler(func(e client.KeyboardRepeatInfoEvent) {
		b.HandleRepeatInfo(e.Rate, e.Delay)
	})
	keyboard.SetLeaveHandler(func(client.KeyboardLeaveEvent) {
		b.HandleKeyboardLeave()
	})
}

func (a *seatAdapter) releasePointer() {
	if wl.CanRelease("wl_pointer", a.version) {
		if err := a.pointer.Release(); err != nil {
			logger.Debug("Failed to release pointer", "error", err)
		}
	}
	a.pointer = nil
}

func (a *seatAdapter) releaseKeyboard() {
	if wl.CanRelease("wl_keyboard", a.version) {
		if err := a.keyboard.Release(); err != nil {
			logger.Debug("Failed to release keyboard", "error", err)
		}
	}
	a.keyboard = nil
}

func (a *seatAdapter) release() {
	if a.pointer != nil {
		a.releasePointer()
	}
	if a.keyboard != nil {
		a.releaseKeyboard()
	}
}
