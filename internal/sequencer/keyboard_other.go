//go:build !linux

package sequencer

import "errors"

// DefaultUinputDevice is unused outside Linux.
const DefaultUinputDevice = ""

// UinputKeyboard is only available on Linux.
type UinputKeyboard struct{}

func NewUinputKeyboard(string) (*UinputKeyboard, error) {
	return nil, errors.New("uinput keyboard is only supported on linux")
}

func (*UinputKeyboard) KeyDown(string) error { return nil }
func (*UinputKeyboard) KeyUp(string) error   { return nil }
func (*UinputKeyboard) Close() error         { return nil }

// KnownKey accepts every key where no key table exists.
func KnownKey(string) bool { return true }
