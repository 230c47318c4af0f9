package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/soar/controlmapper/internal/cli"
	"github.com/soar/controlmapper/internal/config"
	"github.com/soar/controlmapper/internal/control"
	"github.com/soar/controlmapper/internal/directcontrol"
	"github.com/soar/controlmapper/internal/gamepad"
	"github.com/soar/controlmapper/internal/gamepad/joystick"
	"github.com/soar/controlmapper/internal/hub"
	"github.com/soar/controlmapper/internal/logging"
	"github.com/soar/controlmapper/internal/resolver"
	"github.com/soar/controlmapper/internal/sequencer"
	"github.com/soar/controlmapper/internal/server"
	"github.com/soar/controlmapper/internal/synccontrol"
	"github.com/soar/controlmapper/internal/tray"
)

// Cross-platform signal handling: use os.Interrupt on all platforms
// On Windows: os.Interrupt is sent when Ctrl+C is pressed
// On Unix: os.Interrupt is equivalent to syscall.SIGINT
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	if err := cli.NewRootCmd(run, readControllers).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// run wires the joystick reader, the resolver and its sinks, and the network
// servers, then blocks until a shutdown is requested.
func run(ctx context.Context, settings config.Settings, store *config.Store) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var workers sync.WaitGroup
	goWorker := func(fn func()) {
		workers.Add(1)
		go func() {
			defer workers.Done()
			fn()
		}()
	}

	// Key output
	kb := newKeyboard(settings.UinputDevice)
	defer kb.Close()
	seq := sequencer.New(kb, settings.SequencerQueue)
	goWorker(func() { seq.Run(ctx) })

	// Direct control commands fan out to every connected game client
	directHub := hub.NewHub("direct control")
	goWorker(func() { directHub.Run(ctx) })
	direct := directcontrol.NewChannel(settings.DirectControlQueue)
	goWorker(func() { direct.Run(ctx, directHub) })

	syncListener := synccontrol.NewListener()

	r := resolver.New(store, seq, direct, nil, resolver.Options{
		LinearInitialNeutralized: settings.LinearInitialNeutralized,
	})

	// Monitor page
	monitorHub := hub.NewHub("monitor")
	goWorker(func() { monitorHub.Run(ctx) })
	broadcaster := hub.NewBroadcaster(monitorHub, r)
	r.AddObserver(broadcaster)
	goWorker(func() { broadcaster.Run(ctx) })

	servers := []*server.Server{
		server.NewDirectControlServer(directHub, settings.DirectControlAddr),
		server.NewSyncControlServer(syncListener, settings.SyncControlAddr),
		server.NewMonitorServer(server.Monitor{
			Hub:         monitorHub,
			Broadcaster: broadcaster,
			Controller:  r,
			Profiles:    store,
			Sync:        syncListener,
			Frontend:    frontendFS(),
		}, settings.MonitorAddr),
	}
	serverErrCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				serverErrCh <- err
			}
		}()
	}

	if settings.Profile != "" {
		if err := r.SetProfile(settings.Profile); err != nil {
			logging.Warnf("Initial profile: %v", err)
		}
	}

	// Joystick reader feeding the resolver
	reader := joystick.NewReader(store, control.NewTracker())
	readerDone := make(chan error, 1)
	go func() {
		readerDone <- reader.Run(ctx)
	}()
	goWorker(func() { resolver.NewRunner(r, reader.Events()).Run(ctx) })

	url := monitorURL(settings.MonitorAddr)
	logging.Infof("Control mapper started, monitor at %s", url)

	// Channel for tray-triggered shutdown
	shutdownRequested := make(chan struct{})

	var t *tray.Tray
	if settings.Tray {
		t = tray.New(r, store.ProfileNames(), url, func() {
			close(shutdownRequested)
		})
		r.AddObserver(t)
		go t.Run(tray.Icon())
	} else {
		logging.Infof("Press Ctrl+C to exit")
	}

	var runErr error
	readerStopped := false
	select {
	case <-ctx.Done():
		logging.Infof("Shutting down...")
	case <-shutdownRequested:
		logging.Infof("Shutdown requested from tray")
	case err := <-serverErrCh:
		runErr = fmt.Errorf("server: %w", err)
	case err := <-readerDone:
		readerStopped = true
		runErr = fmt.Errorf("joystick reader: %w", err)
	}
	cancel()

	if t != nil {
		t.Quit()
	}
	if !readerStopped {
		<-readerDone
	}

	// Shutdown the HTTP servers gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warnf("Server shutdown: %v", err)
		}
	}

	// the sequencer releases held keys before the keyboard is closed
	workers.Wait()
	logging.Infof("Control mapper stopped")
	return runErr
}

// readControllers reports the raw inputs of the attached controllers to rec
// until ctx is done.
func readControllers(ctx context.Context, store *config.Store, rec gamepad.Recorder) error {
	reader := joystick.NewReader(store, control.NewTracker())
	reader.SetRecorder(rec)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-reader.Events():
			}
		}
	}()
	return reader.Run(ctx)
}

func newKeyboard(device string) sequencer.Keyboard {
	kb, err := sequencer.NewUinputKeyboard(device)
	if err != nil {
		logging.Warnf("Key output unavailable, only logging key presses: %v", err)
		return sequencer.LogKeyboard{}
	}
	return kb
}

// monitorURL turns a listen address into a URL a local browser can open.
func monitorURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
