package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
)

func newPrefsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "dark-mode [on|off|toggle]",
		Short:     "Show or set dark mode",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := e.App(ctx)
			if err != nil {
				return err
			}
			prefs := app.Preferences

			on := prefs.DarkMode(ctx)
			if len(args) == 1 {
				switch strings.ToLower(args[0]) {
				case "on":
					on, err = true, prefs.SetDarkMode(ctx, true)
				case "off":
					on, err = false, prefs.SetDarkMode(ctx, false)
				case "toggle":
					on, err = prefs.ToggleDarkMode(ctx)
				default:
					return apperrors.Validation(fmt.Sprintf("unknown value %q, want on, off or toggle", args[0]))
				}
				if err != nil {
					return err
				}
			}

			if e.jsonOutput() {
				return writeJSON(e.out, map[string]bool{"dark_mode": on})
			}
			state := "off"
			if on {
				state = "on"
			}
			_, err = fmt.Fprintf(e.out, "Dark mode is %s\n", state)
			return err
		},
	})
	return cmd
}
