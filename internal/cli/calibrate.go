package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soar/controlmapper/internal/config"
	"github.com/soar/controlmapper/internal/gamepad"
)

// ReadFunc reads the attached controllers until ctx is done and reports every
// raw input that moves to rec.
type ReadFunc func(ctx context.Context, store *config.Store, rec gamepad.Recorder) error

func newCalibrateCmd(opts *rootOptions, read ReadFunc) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Record the inputs of attached controllers and write controller maps",
		Long: `Move every button, hat and axis of the attached controllers, then press
Ctrl+C. A controller map naming each moved input is written per device to
<config-dir>/sdl_mappings. Names from a map the device already has are kept,
and a map loaded from that directory is updated in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if read == nil {
				return fmt.Errorf("no controller reader available")
			}
			store, err := opts.loadStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			cal := gamepad.NewCalibration(store.ControllerMap)
			cal.OnNew = func(usbID string, c gamepad.MapControl) {
				fmt.Fprintf(out, "[%s] %s %d -> %s\n", usbID, c.Kind, c.Index, c.Name)
			}
			fmt.Fprintln(out, "Move every control, then press Ctrl+C to write the maps.")

			readErr := read(cmd.Context(), store, cal)

			maps := cal.Maps()
			if len(maps) == 0 {
				fmt.Fprintln(out, "no inputs recorded, nothing written")
				return readErr
			}
			files, err := store.WriteControllerMaps(dir, maps)
			for _, f := range files {
				fmt.Fprintf(out, "wrote %s\n", f)
			}
			if err != nil {
				return err
			}
			return readErr
		},
	}
	cmd.Flags().StringVar(&dir, "config-dir", ".config", "directory to write sdl_mappings/ into")
	return cmd
}
