package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/soar/controlmapper/internal/config"
	"github.com/soar/controlmapper/internal/control"
	"github.com/soar/controlmapper/internal/directcontrol"
	"github.com/soar/controlmapper/internal/logging"
	"github.com/soar/controlmapper/internal/profile"
	"github.com/soar/controlmapper/internal/resolver"
	"github.com/soar/controlmapper/internal/sequencer"
)

func newShellCmd(opts *rootOptions) *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Feed control values by hand and watch which actions fire",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.loadStore()
			if err != nil {
				return err
			}
			return runShell(cmd.Context(), opts.settings, store, prompt)
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "controlmapper> ", "shell prompt")
	return cmd
}

// logPublisher stands in for the game clients of the direct-control server.
type logPublisher struct{}

func (logPublisher) Broadcast(msg []byte) {
	logging.Infof("direct control: %s", msg)
}

// runShell evaluates hand-typed control values against the loaded profiles.
// Key actions go to a logging keyboard and direct controls to the log.
func runShell(ctx context.Context, settings config.Settings, store *config.Store, prompt string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	seq := sequencer.New(sequencer.LogKeyboard{}, settings.SequencerQueue)
	go seq.Run(ctx)
	direct := directcontrol.NewChannel(settings.DirectControlQueue)
	go direct.Run(ctx, logPublisher{})

	r := resolver.New(store, seq, direct, nil, resolver.Options{
		LinearInitialNeutralized: settings.LinearInitialNeutralized,
	})
	if settings.Profile != "" {
		if err := r.SetProfile(settings.Profile); err != nil {
			logging.Warnf("%v", err)
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), "controlmapper-shell.history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	sh := newShell(rl.Stdout(), store, r)
	fmt.Fprintln(sh.out, "Type 'help' for commands, 'exit' to leave.")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		tokens, err := shlex.Split(line)
		if err != nil {
			fmt.Fprintf(sh.out, "parse error: %v\n", err)
			continue
		}
		more, err := sh.exec(tokens)
		if err != nil {
			fmt.Fprintf(sh.out, "%s: %v\n", tokens[0], err)
		}
		if !more {
			return nil
		}
	}
}

type shell struct {
	out      io.Writer
	store    *config.Store
	resolver *resolver.Resolver
	tracker  *control.Tracker
	// joysticks lists the joystick ids used with set, in first-use order
	joysticks []string
}

func newShell(out io.Writer, store *config.Store, r *resolver.Resolver) *shell {
	return &shell{
		out:      out,
		store:    store,
		resolver: r,
		tracker:  control.NewTracker(),
	}
}

// exec runs one tokenized line. It reports false once the shell should exit.
func (s *shell) exec(tokens []string) (bool, error) {
	if len(tokens) == 0 {
		return true, nil
	}

	args := tokens[1:]
	switch tokens[0] {
	case "exit", "quit":
		return false, nil
	case "help":
		s.help()
	case "profiles":
		printProfiles(s.out, s.store.Profiles())
		s.printActive()
	case "profile":
		if len(args) != 1 {
			return true, errors.New("usage: profile <name>")
		}
		if err := s.resolver.SetProfile(args[0]); err != nil {
			return true, err
		}
		s.printActive()
	case "reset":
		s.resolver.ResetProfile()
		s.printActive()
	case "set":
		return true, s.set(args)
	case "state":
		s.state()
	case "log":
		return true, s.log(args)
	default:
		return true, errors.New("unknown command, try 'help'")
	}
	return true, nil
}

func (s *shell) printActive() {
	active := s.resolver.ActiveProfile()
	if active == "" {
		active = "none"
	}
	fmt.Fprintf(s.out, "active profile: %s\n", active)
}

func (s *shell) set(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New("usage: set <control> <value> [joystick]")
	}
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", args[1])
	}
	var joystick string
	if len(args) == 3 {
		joystick = args[2]
	}
	if !slices.Contains(s.joysticks, joystick) {
		s.joysticks = append(s.joysticks, joystick)
	}

	if _, seen := s.tracker.Snapshot(joystick)[args[0]]; !seen {
		// hand-fed controls rest at 0 until they are set
		s.tracker.Observe(joystick, args[0], 0)
	}
	ev := s.tracker.Observe(joystick, args[0], value)
	if !ev.HasChanged {
		fmt.Fprintln(s.out, "unchanged")
		return nil
	}
	calls := s.resolver.Run(ev)
	if len(calls) == 0 {
		fmt.Fprintln(s.out, "nothing fired")
	}
	for _, c := range calls {
		verb := "fire"
		if c.Release {
			verb = "release"
		}
		fmt.Fprintf(s.out, "%s %s (%s)\n", verb, describe(c.Action), c.Assignment.Kind())
	}
	return nil
}

func describe(a profile.Action) string {
	switch a := a.(type) {
	case profile.KeysAction:
		return "keys " + a.Keys
	case profile.DirectAction:
		return "direct control " + a.Target + "=" + profile.FormatValue(a.Value)
	default:
		return a.CompareKey()
	}
}

func (s *shell) state() {
	if len(s.joysticks) == 0 {
		fmt.Fprintln(s.out, "no control values set")
		return
	}
	for _, joystick := range s.joysticks {
		name := joystick
		if name == "" {
			name = "(any controller)"
		}
		fmt.Fprintf(s.out, "%s:\n", name)

		values := s.tracker.Snapshot(joystick)
		controls := make([]string, 0, len(values))
		for c := range values {
			controls = append(controls, c)
		}
		slices.Sort(controls)
		for _, c := range controls {
			fmt.Fprintf(s.out, "  %s = %s\n", c, profile.FormatValue(values[c]))
		}
	}
}

func (s *shell) log(args []string) error {
	fs := pflag.NewFlagSet("log", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var vcount int
	var level string
	fs.CountVarP(&vcount, "verbose", "v", "increase verbosity")
	fs.StringVar(&level, "level", "", "error|warn|info|debug|trace")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case level != "":
		l, err := logging.ParseLevel(level)
		if err != nil {
			return err
		}
		logging.SetLevel(l)
	case vcount > 0:
		logging.SetVerbosity(vcount)
	}
	fmt.Fprintf(s.out, "log level: %s\n", logging.CurrentLevel())
	return nil
}

func (s *shell) help() {
	fmt.Fprintln(s.out, strings.TrimSpace(`
profiles                          list loaded profiles
profile <name>                    activate a profile
reset                             deactivate the profile
set <control> <value> [joystick]  feed a control value (-1..1)
state                             show the values set so far
log [-v...] [--level <level>]     show or change the log level
exit | quit                       leave the shell`))
}
