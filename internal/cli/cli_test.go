package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soar/controlmapper/internal/config"
	"github.com/soar/controlmapper/internal/directcontrol"
	"github.com/soar/controlmapper/internal/gamepad"
	"github.com/soar/controlmapper/internal/logging"
	"github.com/soar/controlmapper/internal/resolver"
	"github.com/soar/controlmapper/internal/sequencer"
)

const hornProfile = `
name: horn
controls:
  - name: a
    assignment:
      type: momentary
      threshold: 0.5
      action_activate:
        keys: h
  - name: throttle
    assignment:
      type: direct_control
      controls: Throttle1
      input_value:
        min: 0
        max: 1
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func configDir(t *testing.T, profiles map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range profiles {
		writeFile(t, filepath.Join(dir, "profiles", name), content)
	}
	return dir
}

func execute(t *testing.T, run RunFunc, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(run, nil)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunReceivesSettings(t *testing.T) {
	dir := configDir(t, map[string]string{"horn.yaml": hornProfile})
	settingsFile := filepath.Join(t.TempDir(), "controlmapper.yaml")
	writeFile(t, settingsFile, "monitor_addr: 127.0.0.1:9000\nsequencer_queue: 8\n")

	var (
		got   config.Settings
		store *config.Store
	)
	run := func(ctx context.Context, s config.Settings, st *config.Store) error {
		got, store = s, st
		return nil
	}

	_, err := execute(t, run, "run",
		"--config", settingsFile,
		"--config-dirs", dir,
		"--profile", "horn",
		"--direct-control-addr", "127.0.0.1:7000",
	)
	if err != nil {
		t.Fatal(err)
	}

	if got.MonitorAddr != "127.0.0.1:9000" || got.SequencerQueue != 8 {
		t.Errorf("settings file ignored: %+v", got)
	}
	if got.DirectControlAddr != "127.0.0.1:7000" || got.Profile != "horn" {
		t.Errorf("flags ignored: %+v", got)
	}
	if got.SyncControlAddr != "0.0.0.0:63242" || !got.Tray {
		t.Errorf("defaults lost: %+v", got)
	}
	if store == nil || store.FindProfile("horn", "") == nil {
		t.Error("profiles were not loaded")
	}
}

func TestRunError(t *testing.T) {
	boom := errors.New("boom")
	_, err := execute(t, func(context.Context, config.Settings, *config.Store) error {
		return boom
	}, "run", "--config-dirs", t.TempDir())
	if !errors.Is(err, boom) {
		t.Errorf("expected run error, got %v", err)
	}
}

func TestProfilesCommand(t *testing.T) {
	dir := configDir(t, map[string]string{"horn.yaml": hornProfile})

	out, err := execute(t, nil, "profiles", "--config-dirs", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "horn") || !strings.Contains(out, "any") {
		t.Errorf("unexpected listing:\n%s", out)
	}

	out, err = execute(t, nil, "profiles", "--config-dirs", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "no profiles loaded") {
		t.Errorf("unexpected listing:\n%s", out)
	}
}

func TestValidateCommand(t *testing.T) {
	dir := configDir(t, map[string]string{"horn.yaml": hornProfile})
	out, err := execute(t, nil, "validate", "--config-dirs", dir)
	if err != nil {
		t.Fatalf("unexpected error %v:\n%s", err, out)
	}
	if !strings.Contains(out, "1 profile(s) ok") {
		t.Errorf("unexpected output:\n%s", out)
	}

	dir = configDir(t, map[string]string{"broken.json": "{not json"})
	out, err = execute(t, nil, "validate", "--config-dirs", dir)
	if err == nil {
		t.Fatal("expected an error for a broken profile")
	}
	if !strings.Contains(out, "broken.json") {
		t.Errorf("issue not reported:\n%s", out)
	}
}

func newTestShell(t *testing.T) (*shell, *bytes.Buffer) {
	t.Helper()
	store := config.NewStore()
	if err := store.Load([]string{configDir(t, map[string]string{"horn.yaml": hornProfile})}); err != nil {
		t.Fatal(err)
	}
	r := resolver.New(store, sequencer.New(sequencer.LogKeyboard{}, 16), directcontrol.NewChannel(16), nil, resolver.Options{})
	var out bytes.Buffer
	return newShell(&out, store, r), &out
}

func sendLine(t *testing.T, sh *shell, out *bytes.Buffer, line ...string) string {
	t.Helper()
	out.Reset()
	if _, err := sh.exec(line); err != nil {
		t.Fatalf("%v: %v", line, err)
	}
	return out.String()
}

func TestShellSet(t *testing.T) {
	sh, out := newTestShell(t)

	if got := sendLine(t, sh, out, "set", "a", "1"); !strings.Contains(got, "nothing fired") {
		t.Errorf("fired without a profile: %q", got)
	}
	if got := sendLine(t, sh, out, "profile", "horn"); !strings.Contains(got, "active profile: horn") {
		t.Errorf("unexpected output %q", got)
	}

	if got := sendLine(t, sh, out, "set", "a", "0"); !strings.Contains(got, "nothing fired") {
		t.Errorf("unexpected output %q", got)
	}
	if got := sendLine(t, sh, out, "set", "a", "1"); got != "fire keys h (momentary)\n" {
		t.Errorf("unexpected output %q", got)
	}
	if got := sendLine(t, sh, out, "set", "a", "1"); got != "unchanged\n" {
		t.Errorf("unexpected output %q", got)
	}
	if got := sendLine(t, sh, out, "set", "a", "0"); got != "release keys h (momentary)\n" {
		t.Errorf("unexpected output %q", got)
	}
	if got := sendLine(t, sh, out, "set", "throttle", "0", "pad"); got != "unchanged\n" {
		t.Errorf("a control resting at 0 must not fire: %q", got)
	}
	if got := sendLine(t, sh, out, "set", "throttle", "0.5", "pad"); got != "fire direct control Throttle1=0.75 (direct_control)\n" {
		t.Errorf("unexpected output %q", got)
	}

	got := sendLine(t, sh, out, "state")
	for _, want := range []string{"(any controller):", "  a = 0", "pad:", "  throttle = 0.5"} {
		if !strings.Contains(got, want) {
			t.Errorf("state misses %q:\n%s", want, got)
		}
	}

	if got := sendLine(t, sh, out, "reset"); !strings.Contains(got, "active profile: none") {
		t.Errorf("unexpected output %q", got)
	}
}

func TestShellErrors(t *testing.T) {
	sh, _ := newTestShell(t)

	tests := [][]string{
		{"profile"},
		{"set", "a"},
		{"set", "a", "high"},
		{"dance"},
		{"log", "--level", "loud"},
	}
	for _, tt := range tests {
		more, err := sh.exec(tt)
		if err == nil {
			t.Errorf("%v: expected an error", tt)
		}
		if !more {
			t.Errorf("%v: shell must keep running", tt)
		}
	}

	if _, err := sh.exec([]string{"profile", "sailing"}); !errors.Is(err, resolver.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestShellExit(t *testing.T) {
	sh, _ := newTestShell(t)
	for _, cmd := range []string{"exit", "quit"} {
		if more, err := sh.exec([]string{cmd}); more || err != nil {
			t.Errorf("%s: expected to stop, got %v %v", cmd, more, err)
		}
	}
	if more, _ := sh.exec(nil); !more {
		t.Error("an empty line must not stop the shell")
	}
}

func TestShellLog(t *testing.T) {
	level := logging.CurrentLevel()
	t.Cleanup(func() { logging.SetLevel(level) })

	sh, out := newTestShell(t)
	if got := sendLine(t, sh, out, "log", "--level", "warn"); got != "log level: warn\n" {
		t.Errorf("unexpected output %q", got)
	}
	if got := sendLine(t, sh, out, "log", "-vv"); got != "log level: trace\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestCalibrateWritesMaps(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sdl_mappings", "throttle.yaml"), `
name: TSW Throttle
usb_id: "0x1234:0x5678"
data:
  - kind: axis
    index: 0
    name: throttle
`)

	read := func(ctx context.Context, store *config.Store, rec gamepad.Recorder) error {
		rec.Record("0x1234:0x5678", "Raildriver", gamepad.KindAxis, 0)
		rec.Record("0x1234:0x5678", "Raildriver", gamepad.KindButton, 2)
		rec.Record("0x045E:0x028E", "Xbox pad", gamepad.KindHat, 0)
		return nil
	}

	var out bytes.Buffer
	root := NewRootCmd(nil, read)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"calibrate", "--config-dirs", dir, "--config-dir", dir})
	if err := root.Execute(); err != nil {
		t.Fatalf("%v:\n%s", err, out.String())
	}

	for _, want := range []string{"[0x1234:0x5678] button 2 -> Button2", "0x045E_0x028E.yaml", "throttle.yaml"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output misses %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "axis 0") {
		t.Errorf("a mapped input was reported as new:\n%s", out.String())
	}

	store := config.NewStore()
	if err := store.Load([]string{dir}); err != nil {
		t.Fatal(err)
	}
	m := store.ControllerMap("0x1234:0x5678")
	if m == nil || m.Name != "TSW Throttle" {
		t.Fatalf("unexpected map %+v", m)
	}
	if m.ControlName(gamepad.KindAxis, 0) != "throttle" || m.ControlName(gamepad.KindButton, 2) != "Button2" {
		t.Errorf("unexpected controls %+v", m.Controls)
	}
	if pad := store.ControllerMap("0x045E:0x028E"); pad == nil || pad.ControlName(gamepad.KindHat, 0) != "Hat0" {
		t.Errorf("expected the recorded pad map, got %+v", pad)
	}
}

func TestCalibrateWithoutInput(t *testing.T) {
	dir := t.TempDir()
	read := func(context.Context, *config.Store, gamepad.Recorder) error { return nil }

	var out bytes.Buffer
	root := NewRootCmd(nil, read)
	root.SetOut(&out)
	root.SetArgs([]string{"calibrate", "--config-dirs", dir, "--config-dir", dir})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "nothing written") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "sdl_mappings")); !os.IsNotExist(err) {
		t.Errorf("no maps directory expected, got %v", err)
	}
}
