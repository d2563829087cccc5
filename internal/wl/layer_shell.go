package wl

import (
	"encoding/binary"

	"github.com/rajveermalviya/go-wayland/wayland/client"
)

// Protocol interface names
const (
	LayerShellInterface   = "zwlr_layer_shell_v1"
	LayerSurfaceInterface = "zwlr_layer_surface_v1"
)

// zwlr_layer_shell_v1.layer
const (
	LayerBackground uint32 = 0
	LayerBottom     uint32 = 1
	LayerTop        uint32 = 2
	LayerOverlay    uint32 = 3
)

// zwlr_layer_surface_v1.anchor
const (
	AnchorTop    uint32 = 1
	AnchorBottom uint32 = 2
	AnchorLeft   uint32 = 4
	AnchorRight  uint32 = 8
)

// zwlr_layer_surface_v1.keyboard_interactivity
const (
	KeyboardInteractivityNone      uint32 = 0
	KeyboardInteractivityExclusive uint32 = 1
	KeyboardInteractivityOnDemand  uint32 = 2
)

// LayerShell is the zwlr_layer_shell_v1 global.
type LayerShell struct {
	client.BaseProxy
}

// NewLayerShell registers a layer shell proxy on ctx; bind it with
// Registry.Bind.
func NewLayerShell(ctx *client.Context) *LayerShell {
	shell := &LayerShell{}
	ctx.Register(shell)
	return shell
}

// GetLayerSurface assigns the layer surface role to surface. A nil
// output lets the compositor pick one.
func (i *LayerShell) GetLayerSurface(surface *client.Surface, output *client.Output, layer uint32, namespace string) (*LayerSurface, error) {
	id := NewLayerSurface(i.Context())
	// Opcode 0: get_layer_surface
	const opcode = 0
	nsLen := paddedLen(len(namespace) + 1)
	reqLen := 8 + 4 + 4 + 4 + 4 + (4 + nsLen)
	req := make([]byte, reqLen)
	l := putHeader(req, i.ID(), reqLen, opcode)
	putUint32(req[l:l+4], id.ID())
	l += 4
	putUint32(req[l:l+4], surface.ID())
	l += 4
	if output == nil {
		putUint32(req[l:l+4], 0)
	} else {
		putUint32(req[l:l+4], output.ID())
	}
	l += 4
	putUint32(req[l:l+4], layer)
	l += 4
	putString(req[l:], namespace, nsLen)
	if err := i.Context().WriteMsg(req, nil); err != nil {
		i.Context().Unregister(id)
		return nil, err
	}
	return id, nil
}

// Destroy releases the shell global. Existing layer surfaces stay valid.
func (i *LayerShell) Destroy() error {
	// Opcode 1: destroy (since version 3)
	err := i.sendEmpty(1)
	i.Context().Unregister(i)
	return err
}

func (i *LayerShell) sendEmpty(opcode uint32) error {
	req := make([]byte, 8)
	putHeader(req, i.ID(), 8, opcode)
	return i.Context().WriteMsg(req, nil)
}

// Dispatch handles incoming events (the layer shell has none)
func (i *LayerShell) Dispatch(opcode uint32, fd int, data []byte) {}

// LayerSurfaceConfigureEvent asks the client to resize. A zero width or
// height means the client picks.
type LayerSurfaceConfigureEvent struct {
	Serial uint32
	Width  uint32
	Height uint32
}

// LayerSurface is a zwlr_layer_surface_v1 object.
type LayerSurface struct {
	client.BaseProxy
	configureHandler func(LayerSurfaceConfigureEvent)
	closedHandler    func()
}

// NewLayerSurface registers a layer surface proxy on ctx.
func NewLayerSurface(ctx *client.Context) *LayerSurface {
	surface := &LayerSurface{}
	ctx.Register(surface)
	return surface
}

// SetConfigureHandler sets the handler for configure events
func (i *LayerSurface) SetConfigureHandler(f func(LayerSurfaceConfigureEvent)) {
	i.configureHandler = f
}

// SetClosedHandler sets the handler for closed events
func (i *LayerSurface) SetClosedHandler(f func()) {
	i.closedHandler = f
}

func (i *LayerSurface) send(opcode uint32, args ...uint32) error {
	reqLen := 8 + 4*len(args)
	req := make([]byte, reqLen)
	l := putHeader(req, i.ID(), reqLen, opcode)
	for _, a := range args {
		putUint32(req[l:l+4], a)
		l += 4
	}
	return i.Context().WriteMsg(req, nil)
}

// SetSize requests a logical size; 0 on an axis means "stretch between
// anchors".
func (i *LayerSurface) SetSize(width, height uint32) error {
	return i.send(0, width, height)
}

func (i *LayerSurface) SetAnchor(anchor uint32) error {
	return i.send(1, anchor)
}

func (i *LayerSurface) SetExclusiveZone(zone int32) error {
	return i.send(2, uint32(zone))
}

func (i *LayerSurface) SetMargin(top, right, bottom, left int32) error {
	return i.send(3, uint32(top), uint32(right), uint32(bottom), uint32(left))
}

func (i *LayerSurface) SetKeyboardInteractivity(mode uint32) error {
	return i.send(4, mode)
}

// AckConfigure must precede the commit that applies a configure.
func (i *LayerSurface) AckConfigure(serial uint32) error {
	return i.send(6, serial)
}

func (i *LayerSurface) SetLayer(layer uint32) error {
	return i.send(8, layer)
}

// Destroy destroys the layer surface
func (i *LayerSurface) Destroy() error {
	err := i.send(7)
	i.Context().Unregister(i)
	return err
}

// Dispatch handles incoming events
func (i *LayerSurface) Dispatch(opcode uint32, fd int, data []byte) {
	switch opcode {
	case 0: // configure
		if i.configureHandler == nil || len(data) < 12 {
			return
		}
		i.configureHandler(LayerSurfaceConfigureEvent{
			Serial: getUint32(data[0:4]),
			Width:  getUint32(data[4:8]),
			Height: getUint32(data[8:12]),
		})
	case 1: // closed
		if i.closedHandler != nil {
			i.closedHandler()
		}
	}
}

// wire helpers

func paddedLen(l int) int {
	if l&0x3 != 0 {
		return l + (4 - (l & 0x3))
	}
	return l
}

func putHeader(dst []byte, id uint32, size int, opcode uint32) int {
	putUint32(dst[0:4], id)
	putUint32(dst[4:8], uint32(size<<16)|opcode&0x0000ffff)
	return 8
}

// putString writes a length-prefixed, NUL-terminated, padded string.
func putString(dst []byte, s string, padded int) {
	putUint32(dst[0:4], uint32(len(s)+1))
	copy(dst[4:4+len(s)], s)
	for j := 4 + len(s); j < 4+padded; j++ {
		dst[j] = 0
	}
}

// Wayland marshals in host byte order.
func putUint32(dst []byte, v uint32) {
	binary.NativeEndian.PutUint32(dst, v)
}

func getUint32(src []byte) uint32 {
	return binary.NativeEndian.Uint32(src)
}
