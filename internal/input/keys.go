package input

// Key is a layout-independent key identity.
type Key int

const (
	KeyUnknown Key = iota

	// navigation
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyTab

	// editing
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyDelete
	KeyInsert
	KeySpace

	// modifiers
	KeyShift
	KeyCtrl
	KeyAlt
	KeySuper

	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9

	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// punctuation
	KeyApostrophe
	KeyComma
	KeyMinus
	KeyPeriod
	KeySlash
	KeySemicolon
	KeyEqual
	KeyLeftBracket
	KeyBackslash
	KeyRightBracket
	KeyGrave
)

// IsModifier reports whether k is shift, ctrl, alt or super.
func (k Key) IsModifier() bool {
	return k >= KeyShift && k <= KeySuper
}

var keyNames = map[Key]string{
	KeyUp: "Up", KeyDown: "Down", KeyLeft: "Left", KeyRight: "Right",
	KeyHome: "Home", KeyEnd: "End", KeyPageUp: "PageUp", KeyPageDown: "PageDown",
	KeyTab: "Tab", KeyEnter: "Enter", KeyEscape: "Escape", KeyBackspace: "Backspace",
	KeyDelete: "Delete", KeyInsert: "Insert", KeySpace: "Space",
	KeyShift: "Shift", KeyCtrl: "Ctrl", KeyAlt: "Alt", KeySuper: "Super",
	KeyApostrophe: "'", KeyComma: ",", KeyMinus: "-", KeyPeriod: ".", KeySlash: "/",
	KeySemicolon: ";", KeyEqual: "=", KeyLeftBracket: "[", KeyBackslash: "\\",
	KeyRightBracket: "]", KeyGrave: "`",
}

func (k Key) String() string {
	switch {
	case k >= Key0 && k <= Key9:
		return string(rune('0' + int(k-Key0)))
	case k >= KeyA && k <= KeyZ:
		return string(rune('A' + int(k-KeyA)))
	case k >= KeyF1 && k <= KeyF12:
		return "F" + itoa(int(k-KeyF1)+1)
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "Unknown"
}

// KeyByName resolves names as produced by String, case-insensitive for
// letters and named keys ("enter", "a", "F5").
func KeyByName(name string) (Key, bool) {
	for k := KeyUp; k <= KeyGrave; k++ {
		if equalFold(k.String(), name) {
			return k, true
		}
	}
	switch {
	case equalFold(name, "return"):
		return KeyEnter, true
	case equalFold(name, "esc"):
		return KeyEscape, true
	case equalFold(name, "control"):
		return KeyCtrl, true
	}
	return KeyUnknown, false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}

// xkb keysyms used by the lookup table and the modifier scan.
const (
	keysymBackSpace   uint32 = 0xff08
	keysymTab         uint32 = 0xff09
	keysymReturn      uint32 = 0xff0d
	keysymEscape      uint32 = 0xff1b
	keysymHome        uint32 = 0xff50
	keysymLeft        uint32 = 0xff51
	keysymUp          uint32 = 0xff52
	keysymRight       uint32 = 0xff53
	keysymDown        uint32 = 0xff54
	keysymPageUp      uint32 = 0xff55
	keysymPageDown    uint32 = 0xff56
	keysymEnd         uint32 = 0xff57
	keysymInsert      uint32 = 0xff63
	keysymKPEnter     uint32 = 0xff8d
	keysymF1          uint32 = 0xffbe
	keysymShiftL      uint32 = 0xffe1
	keysymShiftR      uint32 = 0xffe2
	keysymControlL    uint32 = 0xffe3
	keysymControlR    uint32 = 0xffe4
	keysymAltL        uint32 = 0xffe9
	keysymAltR        uint32 = 0xffea
	keysymSuperL      uint32 = 0xffeb
	keysymSuperR      uint32 = 0xffec
	keysymDelete      uint32 = 0xffff
	keysymISOLeftTab  uint32 = 0xfe20
	keysymSpace       uint32 = 0x0020
	keysymApostrophe  uint32 = 0x0027
	keysymComma       uint32 = 0x002c
	keysymMinus       uint32 = 0x002d
	keysymPeriod      uint32 = 0x002e
	keysymSlash       uint32 = 0x002f
	keysym0           uint32 = 0x0030
	keysymSemicolon   uint32 = 0x003b
	keysymEqual       uint32 = 0x003d
	keysymUpperA      uint32 = 0x0041
	keysymBracketLeft uint32 = 0x005b
	keysymBackslash   uint32 = 0x005c
	keysymBracketRt   uint32 = 0x005d
	keysymGrave       uint32 = 0x0060
	keysymLowerA      uint32 = 0x0061
)

var keysymTable = buildKeysymTable()

func buildKeysymTable() map[uint32]Key {
	t := map[uint32]Key{
		keysymBackSpace:   KeyBackspace,
		keysymTab:         KeyTab,
		keysymISOLeftTab:  KeyTab,
		keysymReturn:      KeyEnter,
		keysymKPEnter:     KeyEnter,
		keysymEscape:      KeyEscape,
		keysymHome:        KeyHome,
		keysymLeft:        KeyLeft,
		keysymUp:          KeyUp,
		keysymRight:       KeyRight,
		keysymDown:        KeyDown,
		keysymPageUp:      KeyPageUp,
		keysymPageDown:    KeyPageDown,
		keysymEnd:         KeyEnd,
		keysymInsert:      KeyInsert,
		keysymDelete:      KeyDelete,
		keysymShiftL:      KeyShift,
		keysymShiftR:      KeyShift,
		keysymControlL:    KeyCtrl,
		keysymControlR:    KeyCtrl,
		keysymAltL:        KeyAlt,
		keysymAltR:        KeyAlt,
		keysymSuperL:      KeySuper,
		keysymSuperR:      KeySuper,
		keysymSpace:       KeySpace,
		keysymApostrophe:  KeyApostrophe,
		keysymComma:       KeyComma,
		keysymMinus:       KeyMinus,
		keysymPeriod:      KeyPeriod,
		keysymSlash:       KeySlash,
		keysymSemicolon:   KeySemicolon,
		keysymEqual:       KeyEqual,
		keysymBracketLeft: KeyLeftBracket,
		keysymBackslash:   KeyBackslash,
		keysymBracketRt:   KeyRightBracket,
		keysymGrave:       KeyGrave,
	}
	for i := uint32(0); i < 10; i++ {
		t[keysym0+i] = Key0 + Key(i)
	}
	for i := uint32(0); i < 26; i++ {
		t[keysymUpperA+i] = KeyA + Key(i)
		t[keysymLowerA+i] = KeyA + Key(i)
	}
	for i := uint32(0); i < 12; i++ {
		t[keysymF1+i] = KeyF1 + Key(i)
	}
	return t
}

// KeyForKeysym maps an xkb keysym to a Key.
func KeyForKeysym(sym uint32) (Key, bool) {
	k, ok := keysymTable[sym]
	return k, ok
}
