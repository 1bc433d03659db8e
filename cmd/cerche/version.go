package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/cerche/internal/app"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "cerche %s (commit %s, built %s)\n",
				app.BuildVersion, app.BuildCommit, app.BuildDate)
			return err
		},
	}
}
