package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/soar/controlmapper/internal/gamepad"
)

// WriteControllerMaps writes every map to <dir>/sdl_mappings, one file per
// device, and returns the written paths. A device whose loaded map came from
// that directory is written back to the same file, others to a new YAML file
// named after the usb id.
func (s *Store) WriteControllerMaps(dir string, maps []gamepad.ControllerMap) ([]string, error) {
	out := filepath.Join(dir, sdlMappingsDir)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", out, err)
	}

	var files []string
	for _, m := range maps {
		data := make([]map[string]any, 0, len(m.Controls))
		for _, c := range m.Controls {
			entry := map[string]any{
				"kind":  string(c.Kind),
				"index": c.Index,
				"name":  c.Name,
			}
			if c.Invert {
				entry["invert"] = true
			}
			data = append(data, entry)
		}

		v := viper.New()
		v.Set("name", m.Name)
		v.Set("usb_id", m.USBID)
		v.Set("data", data)

		file := s.ControllerMapFile(m.USBID)
		if file == "" || filepath.Clean(filepath.Dir(file)) != filepath.Clean(out) {
			file = filepath.Join(out, mapFileName(m.USBID))
		}
		if err := v.WriteConfigAs(file); err != nil {
			return files, fmt.Errorf("write %s: %w", file, err)
		}
		files = append(files, file)
	}
	return files, nil
}

// mapFileName turns "0x045E:0x028E" into "0x045E_0x028E.yaml".
func mapFileName(usbID string) string {
	return strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(usbID) + ".yaml"
}
