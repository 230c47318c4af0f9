// Package cli is the command line front-end: running the mapper, inspecting
// the loaded profiles and an interactive shell for trying profiles without a
// controller.
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/soar/controlmapper/internal/config"
	"github.com/soar/controlmapper/internal/logging"
)

// RunFunc starts the mapper with the loaded settings and profiles and blocks
// until ctx is done or the mapper stops by itself.
type RunFunc func(ctx context.Context, settings config.Settings, store *config.Store) error

type rootOptions struct {
	settingsFile string
	verbosity    int
	settings     config.Settings
}

// NewRootCmd creates the command tree. run is invoked by the run command and
// read by the calibrate command.
func NewRootCmd(run RunFunc, read ReadFunc) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "controlmapper",
		Short:         "Map game controller input onto key presses and game direct controls",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.settingsFile, "config", "", "settings file (default: controlmapper.{yaml,json,toml} in . or "+config.DefaultDir()+")")
	pf.CountVarP(&opts.verbosity, "verbose", "v", "more logging (-v debug, -vv trace)")
	pf.String("log-level", "", "log level (error|warn|info|debug|trace)")
	pf.StringSlice("config-dirs", []string{".config", "config"}, "directories holding profiles/ and sdl_mappings/")
	pf.String("profile", "", "profile to activate on start")
	pf.Bool("linear-initial-neutralized", false, "neutralize the initial value of linear assignments")

	cmd.AddCommand(
		newRunCmd(opts, run),
		newProfilesCmd(opts),
		newValidateCmd(opts),
		newShellCmd(opts),
		newCalibrateCmd(opts, read),
	)
	return cmd
}

// load merges settings from file, environment and flags, then applies the
// log level.
func (o *rootOptions) load(cmd *cobra.Command) error {
	v := config.NewViper(o.settingsFile)
	// Flags() holds the inherited persistent flags once cobra parsed them
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}

	s, err := config.ReadSettings(v)
	if err != nil {
		return err
	}
	o.settings = s

	switch {
	case o.verbosity > 0:
		logging.SetVerbosity(o.verbosity)
	case s.LogLevel != "":
		level, err := logging.ParseLevel(s.LogLevel)
		if err != nil {
			return err
		}
		logging.SetLevel(level)
	}
	return nil
}

func (o *rootOptions) loadStore() (*config.Store, error) {
	store := config.NewStore()
	if err := store.Load(o.settings.ConfigDirs); err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return store, nil
}

func newRunCmd(opts *rootOptions, run RunFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Read controllers and fire the active profile's actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.loadStore()
			if err != nil {
				return err
			}
			return run(cmd.Context(), opts.settings, store)
		},
	}

	f := cmd.Flags()
	f.String("monitor-addr", "127.0.0.1:8080", "monitor web page address")
	f.String("direct-control-addr", "0.0.0.0:63241", "direct-control websocket address")
	f.String("sync-control-addr", "0.0.0.0:63242", "sync-control websocket address")
	f.String("uinput-device", "/dev/uinput", "uinput device for key output")
	f.Int("sequencer-queue", 1024, "key action queue size")
	f.Int("direct-control-queue", 1024, "direct-control command queue size")
	f.Bool("tray", true, "show the system tray icon")
	return cmd
}

func newProfilesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the loaded profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.loadStore()
			if err != nil {
				return err
			}
			printProfiles(cmd.OutOrStdout(), store.Profiles())
			return nil
		},
	}
}

func printProfiles(out io.Writer, profiles []config.ProfileInfo) {
	if len(profiles) == 0 {
		fmt.Fprintln(out, "no profiles loaded")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCONTROLLER\tFILE")
	for _, p := range profiles {
		controller := p.ControllerID
		if controller == "" {
			controller = "any"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, controller, p.File)
	}
	tw.Flush()
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load every profile and controller map and report problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.loadStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			issues := store.Issues()
			for _, issue := range issues {
				fmt.Fprintln(out, issue)
			}
			if len(issues) > 0 {
				return fmt.Errorf("%d issue(s) found", len(issues))
			}
			fmt.Fprintf(out, "%d profile(s) ok\n", len(store.Profiles()))
			return nil
		},
	}
}
