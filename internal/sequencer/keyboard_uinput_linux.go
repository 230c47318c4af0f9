//go:build linux

package sequencer

import (
	"fmt"

	"github.com/bendahl/uinput"
)

// DefaultUinputDevice is the usual path of the uinput device node.
const DefaultUinputDevice = "/dev/uinput"

// UinputKeyboard types through a virtual keyboard created with uinput.
type UinputKeyboard struct {
	kb uinput.Keyboard
}

// NewUinputKeyboard creates the virtual keyboard. It needs write access to
// the device node.
func NewUinputKeyboard(device string) (*UinputKeyboard, error) {
	if device == "" {
		device = DefaultUinputDevice
	}
	kb, err := uinput.CreateKeyboard(device, []byte("controlmapper"))
	if err != nil {
		return nil, fmt.Errorf("create uinput keyboard: %w", err)
	}
	return &UinputKeyboard{kb: kb}, nil
}

func (u *UinputKeyboard) KeyDown(key string) error {
	code, ok := keyCodes[key]
	if !ok {
		return fmt.Errorf("unknown key %q", key)
	}
	return u.kb.KeyDown(code)
}

func (u *UinputKeyboard) KeyUp(key string) error {
	code, ok := keyCodes[key]
	if !ok {
		return fmt.Errorf("unknown key %q", key)
	}
	return u.kb.KeyUp(code)
}

func (u *UinputKeyboard) Close() error {
	return u.kb.Close()
}

// KnownKey reports whether key can be typed by the uinput keyboard.
func KnownKey(key string) bool {
	_, ok := keyCodes[key]
	return ok
}

var keyCodes = map[string]int{
	"a":           uinput.KeyA,
	"b":           uinput.KeyB,
	"c":           uinput.KeyC,
	"d":           uinput.KeyD,
	"e":           uinput.KeyE,
	"f":           uinput.KeyF,
	"g":           uinput.KeyG,
	"h":           uinput.KeyH,
	"i":           uinput.KeyI,
	"j":           uinput.KeyJ,
	"k":           uinput.KeyK,
	"l":           uinput.KeyL,
	"m":           uinput.KeyM,
	"n":           uinput.KeyN,
	"o":           uinput.KeyO,
	"p":           uinput.KeyP,
	"q":           uinput.KeyQ,
	"r":           uinput.KeyR,
	"s":           uinput.KeyS,
	"t":           uinput.KeyT,
	"u":           uinput.KeyU,
	"v":           uinput.KeyV,
	"w":           uinput.KeyW,
	"x":           uinput.KeyX,
	"y":           uinput.KeyY,
	"z":           uinput.KeyZ,
	"0":           uinput.Key0,
	"1":           uinput.Key1,
	"2":           uinput.Key2,
	"3":           uinput.Key3,
	"4":           uinput.Key4,
	"5":           uinput.Key5,
	"6":           uinput.Key6,
	"7":           uinput.Key7,
	"8":           uinput.Key8,
	"9":           uinput.Key9,
	"f1":          uinput.KeyF1,
	"f2":          uinput.KeyF2,
	"f3":          uinput.KeyF3,
	"f4":          uinput.KeyF4,
	"f5":          uinput.KeyF5,
	"f6":          uinput.KeyF6,
	"f7":          uinput.KeyF7,
	"f8":          uinput.KeyF8,
	"f9":          uinput.KeyF9,
	"f10":         uinput.KeyF10,
	"f11":         uinput.KeyF11,
	"f12":         uinput.KeyF12,
	"num0":        uinput.KeyKp0,
	"num1":        uinput.KeyKp1,
	"num2":        uinput.KeyKp2,
	"num3":        uinput.KeyKp3,
	"num4":        uinput.KeyKp4,
	"num5":        uinput.KeyKp5,
	"num6":        uinput.KeyKp6,
	"num7":        uinput.KeyKp7,
	"num8":        uinput.KeyKp8,
	"num9":        uinput.KeyKp9,
	"esc":         uinput.KeyEsc,
	"escape":      uinput.KeyEsc,
	"tab":         uinput.KeyTab,
	"enter":       uinput.KeyEnter,
	"return":      uinput.KeyEnter,
	"space":       uinput.KeySpace,
	"backspace":   uinput.KeyBackspace,
	"capslock":    uinput.KeyCapslock,
	"ctrl":        uinput.KeyLeftctrl,
	"lctrl":       uinput.KeyLeftctrl,
	"rctrl":       uinput.KeyRightctrl,
	"shift":       uinput.KeyLeftshift,
	"lshift":      uinput.KeyLeftshift,
	"rshift":      uinput.KeyRightshift,
	"alt":         uinput.KeyLeftalt,
	"lalt":        uinput.KeyLeftalt,
	"ralt":        uinput.KeyRightalt,
	"up":          uinput.KeyUp,
	"down":        uinput.KeyDown,
	"left":        uinput.KeyLeft,
	"right":       uinput.KeyRight,
	"home":        uinput.KeyHome,
	"end":         uinput.KeyEnd,
	"pageup":      uinput.KeyPageup,
	"pagedown":    uinput.KeyPagedown,
	"insert":      uinput.KeyInsert,
	"delete":      uinput.KeyDelete,
	"minus":       uinput.KeyMinus,
	"-":           uinput.KeyMinus,
	"equal":       uinput.KeyEqual,
	"=":           uinput.KeyEqual,
	"[":           uinput.KeyLeftbrace,
	"]":           uinput.KeyRightbrace,
	";":           uinput.KeySemicolon,
	"'":           uinput.KeyApostrophe,
	"`":           uinput.KeyGrave,
	"\\":          uinput.KeyBackslash,
	",":           uinput.KeyComma,
	".":           uinput.KeyDot,
	"/":           uinput.KeySlash,
	"numplus":     uinput.KeyKpplus,
	"numminus":    uinput.KeyKpminus,
	"nummultiply": uinput.KeyKpasterisk,
	"numdivide":   uinput.KeyKpslash,
	"numdecimal":  uinput.KeyKpdot,
	"numenter":    uinput.KeyKpenter,
}
