package tray

import _ "embed"

//go:embed icon.ico
var icon []byte

// Icon returns the embedded 16x16 tray icon.
func Icon() []byte {
	return icon
}
