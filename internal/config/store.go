package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/soar/controlmapper/internal/gamepad"
	"github.com/soar/controlmapper/internal/logging"
	"github.com/soar/controlmapper/internal/profile"
	"github.com/soar/controlmapper/internal/sequencer"
)

const (
	profilesDir    = "profiles"
	sdlMappingsDir = "sdl_mappings"
)

// Issue is a problem found while loading a document. The document, or the
// part of it the issue names, was skipped or loaded with a fallback.
type Issue struct {
	File string
	Err  error
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %v", i.File, i.Err)
}

// ProfileInfo summarizes a loaded profile.
type ProfileInfo struct {
	Name         string `json:"name"`
	ControllerID string `json:"controllerId,omitempty"`
	File         string `json:"file"`
}

type loadedProfile struct {
	profile *profile.Profile
	file    string
}

type loadedMap struct {
	cmap *gamepad.ControllerMap
	file string
}

// Store holds the profiles and controller maps loaded from the config dirs.
// It is safe for concurrent use; Load replaces the content atomically.
type Store struct {
	mu       sync.RWMutex
	profiles []loadedProfile
	maps     []loadedMap
	issues   []Issue
}

func NewStore() *Store {
	return &Store{}
}

// Load reads <dir>/profiles and <dir>/sdl_mappings of every dir in order.
// Missing directories are skipped. A later profile with the same name and
// controller id replaces an earlier one, and likewise for maps with the same
// usb_id. Documents that fail to parse are reported as issues.
func (s *Store) Load(dirs []string) error {
	var (
		profiles []loadedProfile
		maps     []loadedMap
		issues   []Issue
	)

	for _, dir := range dirs {
		files, err := documentFiles(filepath.Join(dir, profilesDir))
		if err != nil {
			return err
		}
		for _, file := range files {
			p, problems, err := loadProfile(file)
			if err != nil {
				issues = append(issues, Issue{File: file, Err: err})
				continue
			}
			for _, pr := range problems {
				issues = append(issues, Issue{File: file, Err: pr})
			}
			profiles = slices.DeleteFunc(profiles, func(lp loadedProfile) bool {
				return lp.profile.Name == p.Name && gamepad.SameUSBID(lp.profile.ControllerID, p.ControllerID)
			})
			profiles = append(profiles, loadedProfile{profile: p, file: file})
		}

		files, err = documentFiles(filepath.Join(dir, sdlMappingsDir))
		if err != nil {
			return err
		}
		for _, file := range files {
			m, err := loadControllerMap(file)
			if err != nil {
				issues = append(issues, Issue{File: file, Err: err})
				continue
			}
			for _, pr := range m.Validate() {
				issues = append(issues, Issue{File: file, Err: errors.New(pr)})
			}
			maps = slices.DeleteFunc(maps, func(other loadedMap) bool {
				return gamepad.SameUSBID(other.cmap.USBID, m.USBID)
			})
			maps = append(maps, loadedMap{cmap: m, file: file})
		}
	}

	s.mu.Lock()
	s.profiles = profiles
	s.maps = maps
	s.issues = issues
	s.mu.Unlock()

	logging.Infof("Loaded %d profile(s) and %d controller map(s) from %s",
		len(profiles), len(maps), strings.Join(dirs, ", "))
	for _, issue := range issues {
		logging.Warnf("%s", issue)
	}
	return nil
}

// FindProfile returns the profile called name that applies to the
// controller. A profile bound to exactly that controller wins over a generic
// one. An empty controllerID matches any profile with the name.
func (s *Store) FindProfile(name, controllerID string) *profile.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var generic *profile.Profile
	for _, lp := range s.profiles {
		p := lp.profile
		if p.Name != name {
			continue
		}
		if controllerID != "" && p.ControllerID != "" && gamepad.SameUSBID(p.ControllerID, controllerID) {
			return p
		}
		if p.ControllerID == "" || controllerID == "" {
			if generic == nil {
				generic = p
			}
		}
	}
	return generic
}

// Profiles lists the loaded profiles ordered by name.
func (s *Store) Profiles() []ProfileInfo {
	s.mu.RLock()
	out := make([]ProfileInfo, 0, len(s.profiles))
	for _, lp := range s.profiles {
		out = append(out, ProfileInfo{
			Name:         lp.profile.Name,
			ControllerID: lp.profile.ControllerID,
			File:         lp.file,
		})
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b ProfileInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// ProfileNames lists the distinct profile names in order.
func (s *Store) ProfileNames() []string {
	var names []string
	for _, info := range s.Profiles() {
		if len(names) == 0 || names[len(names)-1] != info.Name {
			names = append(names, info.Name)
		}
	}
	return names
}

// ControllerMap returns the map for a device: a loaded one if present,
// otherwise the built-in one, otherwise nil.
func (s *Store) ControllerMap(usbID string) *gamepad.ControllerMap {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.maps {
		if gamepad.SameUSBID(m.cmap.USBID, usbID) {
			return m.cmap
		}
	}
	return gamepad.BuiltinMap(usbID)
}

// ControllerMapFile returns the file the device's map was loaded from, or ""
// for built-in and unknown devices.
func (s *Store) ControllerMapFile(usbID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.maps {
		if gamepad.SameUSBID(m.cmap.USBID, usbID) {
			return m.file
		}
	}
	return ""
}

// Issues returns the problems found by the last Load.
func (s *Store) Issues() []Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.issues)
}

var documentExts = []string{".json", ".yaml", ".yml", ".toml"}

func documentFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Debugf("Skipping missing directory %s", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(documentExts, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func readDocument(file string, out any) error {
	v := viper.New()
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func loadProfile(file string) (*profile.Profile, []error, error) {
	var doc profileDoc
	if err := readDocument(file, &doc); err != nil {
		return nil, nil, err
	}

	p, issues := doc.toProfile()
	issues = append(issues, profile.Validate(p)...)
	issues = append(issues, keyIssues(p, sequencer.KnownKey)...)

	errs := make([]error, len(issues))
	for i := range issues {
		errs[i] = issues[i]
	}
	return p, errs, nil
}

func loadControllerMap(file string) (*gamepad.ControllerMap, error) {
	var m gamepad.ControllerMap
	if err := readDocument(file, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
