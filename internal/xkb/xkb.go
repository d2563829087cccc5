// Package xkb compiles wl_keyboard keymaps with libxkbcommon.
package xkb

/*
#cgo LDFLAGS: -lxkbcommon

#include <stdlib.h>
#include <xkbcommon/xkbcommon.h>
*/
import "C"

import (
	"errors"
	"unsafe"

	"github.com/bnema/waypick/internal/input"
)

var (
	ErrContext = errors.New("xkb: failed to create context")
	ErrKeymap  = errors.New("xkb: failed to compile keymap")
	ErrState   = errors.New("xkb: failed to create state")
)

const modInvalid = 0xffffffff

// Compiler owns an xkb context shared by every keymap it compiles.
type Compiler struct {
	ctx *C.struct_xkb_context
}

// NewCompiler creates an xkb context.
func NewCompiler() (*Compiler, error) {
	ctx := C.xkb_context_new(C.XKB_CONTEXT_NO_FLAGS)
	if ctx == nil {
		return nil, ErrContext
	}
	return &Compiler{ctx: ctx}, nil
}

// Compile parses an xkb_v1 text keymap. A trailing NUL, as sent by
// compositors, is ignored.
func (c *Compiler) Compile(data []byte) (input.Keymap, input.KeyState, error) {
	for len(data) > 0 && data[len(data)-1] == 0 {
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return nil, nil, ErrKeymap
	}

	km := C.xkb_keymap_new_from_buffer(c.ctx,
		(*C.char)(unsafe.Pointer(&data[0])), C.size_t(len(data)),
		C.XKB_KEYMAP_FORMAT_TEXT_V1, C.XKB_KEYMAP_COMPILE_NO_FLAGS)
	if km == nil {
		return nil, nil, ErrKeymap
	}
	st := C.xkb_state_new(km)
	if st == nil {
		C.xkb_keymap_unref(km)
		return nil, nil, ErrState
	}
	return &Keymap{km: km}, &State{st: st}, nil
}

// Close releases the context.
func (c *Compiler) Close() {
	if c.ctx != nil {
		C.xkb_context_unref(c.ctx)
		c.ctx = nil
	}
}

// Keymap wraps struct xkb_keymap.
type Keymap struct {
	km *C.struct_xkb_keymap
}

func (k *Keymap) KeycodeRange() (uint32, uint32) {
	return uint32(C.xkb_keymap_min_keycode(k.km)), uint32(C.xkb_keymap_max_keycode(k.km))
}

func (k *Keymap) NumLayouts(keycode uint32) uint32 {
	return uint32(C.xkb_keymap_num_layouts_for_key(k.km, C.xkb_keycode_t(keycode)))
}

func (k *Keymap) Keysyms(keycode, layout uint32) []uint32 {
	var syms *C.xkb_keysym_t
	n := int(C.xkb_keymap_key_get_syms_by_level(k.km, C.xkb_keycode_t(keycode),
		C.xkb_layout_index_t(layout), 0, &syms))
	if n <= 0 || syms == nil {
		return nil
	}
	out := make([]uint32, n)
	for i, s := range unsafe.Slice(syms, n) {
		out[i] = uint32(s)
	}
	return out
}

func (k *Keymap) ModIndex(name string) (uint32, bool) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	idx := uint32(C.xkb_keymap_mod_get_index(k.km, cname))
	return idx, idx != modInvalid
}

func (k *Keymap) Release() {
	if k.km != nil {
		C.xkb_keymap_unref(k.km)
		k.km = nil
	}
}

// State wraps struct xkb_state.
type State struct {
	st  *C.struct_xkb_state
	buf [64]byte
}

func (s *State) UpdateKey(keycode uint32, pressed bool) {
	dir := C.enum_xkb_key_direction(C.XKB_KEY_UP)
	if pressed {
		dir = C.XKB_KEY_DOWN
	}
	C.xkb_state_update_key(s.st, C.xkb_keycode_t(keycode), dir)
}

func (s *State) UpdateMask(depressed, latched, locked, group uint32) {
	g := C.xkb_layout_index_t(group)
	C.xkb_state_update_mask(s.st, C.xkb_mod_mask_t(depressed), C.xkb_mod_mask_t(latched),
		C.xkb_mod_mask_t(locked), g, g, g)
}

func (s *State) Keysym(keycode uint32) uint32 {
	return uint32(C.xkb_state_key_get_one_sym(s.st, C.xkb_keycode_t(keycode)))
}

// UTF8 returns the text keycode produces in the current state.
func (s *State) UTF8(keycode uint32) string {
	kc := C.xkb_keycode_t(keycode)
	n := int(C.xkb_state_key_get_utf8(s.st, kc, (*C.char)(unsafe.Pointer(&s.buf[0])), C.size_t(len(s.buf))))
	if n <= 0 {
		return ""
	}
	if n < len(s.buf) {
		return string(s.buf[:n])
	}
	big := make([]byte, n+1)
	n = int(C.xkb_state_key_get_utf8(s.st, kc, (*C.char)(unsafe.Pointer(&big[0])), C.size_t(len(big))))
	return string(big[:n])
}

func (s *State) Release() {
	if s.st != nil {
		C.xkb_state_unref(s.st)
		s.st = nil
	}
}
