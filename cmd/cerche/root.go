package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/cerche/internal/app"
)

type rootOptions struct {
	envFiles []string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "cerche",
		Short: "Search aggregation server for retrieval-augmented chat",
		Long: `cerche answers POSTed search queries with cleaned page text.

Commands:
  cerche serve     Run the search server
  cerche query     Send one query to a running server
  cerche search    Query the backend directly
  cerche version   Print build information`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.LoadEnvFiles(opts.envFiles...); err != nil {
				return err
			}
			if opts.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
	}
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"},
		"Dotenv file(s) to load before reading the environment (repeatable)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newServeCmd(opts), newQueryCmd(), newSearchCmd(), newVersionCmd())
	return root
}
