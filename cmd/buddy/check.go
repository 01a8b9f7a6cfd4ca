package main

import (
	"fmt"
	"io"

	"github.com/foxseedlab/meetingbuddy/internal/deps"
	"github.com/spf13/cobra"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether whisper.cpp, the model and the required tools are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			statuses := deps.CheckAll(deps.Required(cfg))
			printStatuses(cmd.OutOrStdout(), statuses)
			return deps.Verify(statuses)
		},
	}
}

func printStatuses(w io.Writer, statuses []deps.Status) {
	for _, st := range statuses {
		switch {
		case st.Present && st.Resolved != "":
			fmt.Fprintf(w, "ok       %-28s %s\n", st.Name, st.Resolved)
		case st.Present:
			fmt.Fprintf(w, "ok       %-28s %s\n", st.Name, st.Target)
		case st.Optional:
			fmt.Fprintf(w, "optional %-28s %s\n", st.Name, st.Hint)
		default:
			fmt.Fprintf(w, "missing  %-28s %s\n", st.Name, st.Hint)
		}
	}
}
