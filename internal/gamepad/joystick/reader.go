// Package joystick reads raw SDL3 joysticks and turns their inputs into
// control change events.
//
// Importing this package loads the SDL3 shared library, so only the
// application entry point depends on it.
package joystick

import (
	"context"
	"errors"
	"runtime"

	"github.com/jupiterrider/purego-sdl3/sdl"

	"github.com/soar/controlmapper/internal/control"
	"github.com/soar/controlmapper/internal/gamepad"
	"github.com/soar/controlmapper/internal/logging"
)

const (
	deadzone    = 0.05
	pollDelayNS = 16_000_000 // ~60Hz

	eventBuffer = 256
)

// MapSource resolves the controller map of a device.
type MapSource interface {
	ControllerMap(usbID string) *gamepad.ControllerMap
}

type joystickInfo struct {
	joystick *sdl.Joystick
	cmap     *gamepad.ControllerMap
	name     string
	usbID    string
	id       sdl.JoystickID
	axes     int32
	buttons  int32
	hats     int32
}

// Reader polls every attached joystick and emits a ChangeEvent for each
// control whose value moved.
type Reader struct {
	maps      MapSource
	tracker   *control.Tracker
	joysticks map[sdl.JoystickID]*joystickInfo
	events    chan control.ChangeEvent
	recorder  gamepad.Recorder
}

func NewReader(maps MapSource, tracker *control.Tracker) *Reader {
	return &Reader{
		maps:      maps,
		tracker:   tracker,
		joysticks: make(map[sdl.JoystickID]*joystickInfo),
		events:    make(chan control.ChangeEvent, eventBuffer),
	}
}

// SetRecorder reports every raw input that moves to rec. It must be called
// before Run.
func (r *Reader) SetRecorder(rec gamepad.Recorder) {
	r.recorder = rec
}

// Events returns the channel on which control changes are sent.
func (r *Reader) Events() <-chan control.ChangeEvent {
	return r.events
}

// Run initializes SDL and runs the event and polling loop on the current
// thread until ctx is cancelled.
func (r *Reader) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !sdl.Init(sdl.InitJoystick) {
		return errors.New("SDL init failed: " + sdl.GetError())
	}
	defer sdl.Quit()

	logging.Infof("SDL3 Joystick subsystem initialized")

	for _, id := range sdl.GetJoysticks() {
		r.openJoystick(id)
	}

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return nil
		default:
		}

		r.processEvents()
		r.pollState()
		sdl.DelayNS(pollDelayNS)
	}
}

func (r *Reader) processEvents() {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		switch event.Type() {
		case sdl.EventJoystickAdded:
			r.openJoystick(event.JDevice().Which)

		case sdl.EventJoystickRemoved:
			r.removeJoystick(event.JDevice().Which)

		case sdl.EventJoystickButtonDown, sdl.EventJoystickButtonUp:
			be := event.JButton()
			logging.Tracef("Button: index=%d joystick=%d", be.Button, be.Which)

		case sdl.EventJoystickHatMotion:
			he := event.JHat()
			logging.Tracef("Hat: index=%d value=0x%02X joystick=%d", he.Hat, he.Value, he.Which)
		}
	}
}

func (r *Reader) openJoystick(instanceID sdl.JoystickID) {
	if _, exists := r.joysticks[instanceID]; exists {
		return
	}

	js := sdl.OpenJoystick(instanceID)
	if js == nil {
		logging.Warnf("Failed to open joystick %d: %s", instanceID, sdl.GetError())
		return
	}

	usbID := gamepad.USBID(sdl.GetJoystickVendor(js), sdl.GetJoystickProduct(js))
	info := &joystickInfo{
		joystick: js,
		cmap:     r.maps.ControllerMap(usbID),
		name:     sdl.GetJoystickName(js),
		usbID:    usbID,
		id:       sdl.GetJoystickID(js),
		axes:     sdl.GetNumJoystickAxes(js),
		buttons:  sdl.GetNumJoystickButtons(js),
		hats:     sdl.GetNumJoystickHats(js),
	}
	r.joysticks[info.id] = info

	mapName := "none"
	if info.cmap != nil {
		mapName = info.cmap.Name
	}
	logging.Infof("Joystick connected: %s (%s) map=%s axes=%d buttons=%d hats=%d",
		info.name, usbID, mapName, info.axes, info.buttons, info.hats)
}

func (r *Reader) removeJoystick(instanceID sdl.JoystickID) {
	info, exists := r.joysticks[instanceID]
	if !exists {
		return
	}

	logging.Infof("Joystick disconnected: %s (%s)", info.name, info.usbID)
	sdl.CloseJoystick(info.joystick)
	delete(r.joysticks, instanceID)

	for _, other := range r.joysticks {
		if other.usbID == info.usbID {
			return
		}
	}
	r.tracker.Forget(info.usbID)
}

func (r *Reader) closeAll() {
	for id, info := range r.joysticks {
		sdl.CloseJoystick(info.joystick)
		delete(r.joysticks, id)
	}
}

func (r *Reader) pollState() {
	for _, info := range r.joysticks {
		if !sdl.JoystickConnected(info.joystick) {
			continue
		}
		js := info.joystick

		for i := int32(0); i < info.axes; i++ {
			v := gamepad.NormalizeAxis(sdl.GetJoystickAxis(js, i))
			if info.cmap.Inverted(i) {
				v = -v
			}
			r.observe(info, gamepad.KindAxis, i, gamepad.ApplyDeadzone(v, deadzone))
		}

		for i := int32(0); i < info.buttons; i++ {
			v := 0.0
			if sdl.GetJoystickButton(js, i) {
				v = 1
			}
			r.observe(info, gamepad.KindButton, i, v)
		}

		for i := int32(0); i < info.hats; i++ {
			r.observe(info, gamepad.KindHat, i, float64(sdl.GetJoystickHat(js, i)))
		}
	}
}

func (r *Reader) observe(info *joystickInfo, kind gamepad.ControlKind, index int32, value float64) {
	ev := r.tracker.Observe(info.usbID, info.cmap.ControlName(kind, index), value)
	if !ev.HasChanged {
		return
	}
	if r.recorder != nil {
		r.recorder.Record(info.usbID, info.name, kind, index)
	}

	select {
	case r.events <- ev:
	default:
		// Drop if channel is full to avoid blocking the SDL thread
		logging.Debugf("Event queue full, dropping %s=%v", ev.ControlName, value)
	}
}
