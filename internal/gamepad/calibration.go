package gamepad

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Recorder is told about raw inputs as they move.
type Recorder interface {
	Record(usbID, device string, kind ControlKind, index int32)
}

// Calibration collects a ControllerMap for every device whose inputs were
// moved. Entries of an existing map are kept, new inputs are added with names
// such as "Axis2" or "Button11".
type Calibration struct {
	existing func(usbID string) *ControllerMap
	// OnNew is called for every input added to a map. It may be nil.
	OnNew func(usbID string, c MapControl)

	mu   sync.Mutex
	maps map[string]*ControllerMap
}

// NewCalibration starts a calibration. existing returns the map a device
// already has, or nil; it may itself be nil.
func NewCalibration(existing func(usbID string) *ControllerMap) *Calibration {
	return &Calibration{
		existing: existing,
		maps:     make(map[string]*ControllerMap),
	}
}

func (c *Calibration) Record(usbID, device string, kind ControlKind, index int32) {
	c.mu.Lock()
	key := strings.ToUpper(usbID)
	m, ok := c.maps[key]
	if !ok {
		m = &ControllerMap{Name: device, USBID: usbID}
		if c.existing != nil {
			if prev := c.existing(usbID); prev != nil {
				m.Name = prev.Name
				m.Controls = slices.Clone(prev.Controls)
			}
		}
		if m.Name == "" {
			m.Name = "Unknown"
		}
		c.maps[key] = m
	}

	if m.Lookup(kind, index) != nil {
		c.mu.Unlock()
		return
	}
	entry := MapControl{Kind: kind, Index: index, Name: calibratedName(kind, index)}
	m.Controls = append(m.Controls, entry)
	c.mu.Unlock()

	if c.OnNew != nil {
		c.OnNew(usbID, entry)
	}
}

func calibratedName(kind ControlKind, index int32) string {
	s := string(kind)
	if s == "" {
		return fmt.Sprintf("Control%d", index)
	}
	return strings.ToUpper(s[:1]) + s[1:] + fmt.Sprint(index)
}

// Maps returns copies of the collected maps ordered by usb id.
func (c *Calibration) Maps() []ControllerMap {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ControllerMap, 0, len(c.maps))
	for _, m := range c.maps {
		cp := *m
		cp.Controls = slices.Clone(m.Controls)
		out = append(out, cp)
	}
	slices.SortFunc(out, func(a, b ControllerMap) int {
		return strings.Compare(strings.ToUpper(a.USBID), strings.ToUpper(b.USBID))
	})
	return out
}
