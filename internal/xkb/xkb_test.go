package xkb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeymap = `xkb_keymap {
	xkb_keycodes "test" {
		minimum = 8;
		maximum = 255;
		<AC01> = 38;
		<LCTL> = 37;
	};
	xkb_types "test" {
		type "ONE_LEVEL" {
			modifiers = none;
			level_name[Level1] = "Any";
		};
	};
	xkb_compat "test" {
	};
	xkb_symbols "test" {
		key <AC01> { [ a ] };
		key <LCTL> { [ Control_L ] };
		modifier_map Control { <LCTL> };
	};
};
`

func TestCompile(t *testing.T) {
	c, err := NewCompiler()
	require.NoError(t, err)
	defer c.Close()

	_, _, err = c.Compile([]byte{0})
	assert.ErrorIs(t, err, ErrKeymap)

	km, st, err := c.Compile(append([]byte(testKeymap), 0))
	require.NoError(t, err)
	defer km.Release()
	defer st.Release()

	lo, hi := km.KeycodeRange()
	assert.LessOrEqual(t, lo, uint32(37))
	assert.GreaterOrEqual(t, hi, uint32(38))
	assert.Equal(t, []uint32{0x61}, km.Keysyms(38, 0))

	idx, ok := km.ModIndex("Control")
	assert.True(t, ok)
	assert.Equal(t, uint32(2), idx)
	_, ok = km.ModIndex("NoSuchModifier")
	assert.False(t, ok)

	assert.Equal(t, uint32(0x61), st.Keysym(38))
	assert.Equal(t, "a", st.UTF8(38))
	st.UpdateKey(38, true)
	st.UpdateKey(38, false)
}
