package sequencer

import "github.com/soar/controlmapper/internal/logging"

// LogKeyboard only logs key events. It stands in for a real keyboard where
// none can be created, and in dry runs.
type LogKeyboard struct{}

func (LogKeyboard) KeyDown(key string) error {
	logging.Infof("key down: %s", key)
	return nil
}

func (LogKeyboard) KeyUp(key string) error {
	logging.Infof("key up: %s", key)
	return nil
}

func (LogKeyboard) Close() error { return nil }
