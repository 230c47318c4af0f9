package tray

import (
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"fyne.io/systray"

	"github.com/soar/controlmapper/internal/logging"
	"github.com/soar/controlmapper/internal/resolver"
)

// ShutdownFunc is called when "Exit" is clicked
type ShutdownFunc func()

// Controller is what the tray menu drives.
type Controller interface {
	SetProfile(name string) error
	ResetProfile()
	ActiveProfile() string
}

// Tray manages the system tray icon and menu. It implements
// resolver.Observer to keep the profile check marks current.
type Tray struct {
	controller   Controller
	profiles     []string
	monitorURL   string
	shutdownFunc ShutdownFunc
	once         sync.Once
	shuttingDown atomic.Bool

	mu          sync.Mutex
	ready       bool
	menuNone    *systray.MenuItem
	menuProfile map[string]*systray.MenuItem
	menuOpen    *systray.MenuItem
	menuExit    *systray.MenuItem
}

// New creates a new Tray instance
func New(controller Controller, profiles []string, monitorURL string, shutdownFn ShutdownFunc) *Tray {
	return &Tray{
		controller:   controller,
		profiles:     profiles,
		monitorURL:   monitorURL,
		shutdownFunc: shutdownFn,
		menuProfile:  make(map[string]*systray.MenuItem),
	}
}

// Run initializes and runs the system tray (blocks until Quit())
func (t *Tray) Run(iconData []byte) {
	systray.Run(func() {
		t.onReady(iconData)
	}, func() {
		t.onExit()
	})
}

// Quit removes the tray icon. Run returns afterwards.
func (t *Tray) Quit() {
	if t.shuttingDown.CompareAndSwap(false, true) {
		systray.Quit()
	}
}

// onReady is called when the tray is ready
func (t *Tray) onReady(iconData []byte) {
	if iconData != nil {
		systray.SetIcon(iconData)
	}
	systray.SetTitle("Control Mapper")
	systray.SetTooltip("Control Mapper - " + t.monitorURL)

	t.mu.Lock()
	menuProfiles := systray.AddMenuItem("Profile", "Select the active profile")
	t.menuNone = menuProfiles.AddSubMenuItemCheckbox("None", "Deactivate profiles", false)
	for _, name := range t.profiles {
		t.menuProfile[name] = menuProfiles.AddSubMenuItemCheckbox(name, "Activate "+name, false)
	}
	systray.AddSeparator()
	t.menuOpen = systray.AddMenuItem("Open Monitor", "Open web interface")
	t.menuExit = systray.AddMenuItem("Exit", "Quit application")
	t.ready = true
	t.mu.Unlock()

	t.updateChecks(t.controller.ActiveProfile())

	// Handle menu clicks in separate goroutines to prevent blocking
	go t.handleMenuClicks()
	go t.handleProfileClicks("", t.menuNone)
	for name, item := range t.menuProfile {
		go t.handleProfileClicks(name, item)
	}

	logging.Infof("System tray initialized")
}

// handleMenuClicks processes menu item clicks without blocking
func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.menuOpen.ClickedCh:
			if !t.shuttingDown.Load() {
				t.openBrowser()
			}
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				t.once.Do(t.shutdownFunc)
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) handleProfileClicks(name string, item *systray.MenuItem) {
	for range item.ClickedCh {
		if t.shuttingDown.Load() {
			return
		}
		if name == "" {
			t.controller.ResetProfile()
		} else if err := t.controller.SetProfile(name); err != nil {
			logging.Warnf("Tray: %v", err)
		}
		t.updateChecks(t.controller.ActiveProfile())
	}
}

// CallFired implements resolver.Observer.
func (t *Tray) CallFired(resolver.Call) {}

// ProfileChanged implements resolver.Observer.
func (t *Tray) ProfileChanged(name string) {
	t.updateChecks(name)
}

func (t *Tray) updateChecks(active string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}

	setChecked(t.menuNone, active == "")
	for name, item := range t.menuProfile {
		setChecked(item, name == active)
	}
}

func setChecked(item *systray.MenuItem, checked bool) {
	if checked {
		item.Check()
	} else {
		item.Uncheck()
	}
}

// onExit is called when the tray is exiting
func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	logging.Infof("System tray exiting")
}

// openBrowser opens the monitor page in the default web browser
func (t *Tray) openBrowser() {
	// Prevent multiple browser launches during shutdown
	if t.shuttingDown.Load() {
		return
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", t.monitorURL)
	case "darwin":
		cmd = exec.Command("open", t.monitorURL)
	default:
		cmd = exec.Command("xdg-open", t.monitorURL)
	}

	if err := cmd.Start(); err != nil {
		logging.Warnf("Failed to open browser: %v", err)
	}
}
