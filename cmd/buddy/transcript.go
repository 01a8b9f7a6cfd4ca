package main

import (
	"fmt"

	"github.com/foxseedlab/meetingbuddy/internal/session"
	"github.com/spf13/cobra"
)

func newTranscriptCmd(opts *rootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Print the transcript log of a stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			text, err := session.ReadTranscript(cfg.SessionsDir(), name)
			if err != nil {
				return err
			}
			if text == "" {
				return fmt.Errorf("no transcript recorded for session %q", name)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Session name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
