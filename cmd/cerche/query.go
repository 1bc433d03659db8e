package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/cerche/internal/app"
	"github.com/hyperifyio/cerche/internal/client"
)

func newQueryCmd() *cobra.Command {
	var (
		host string
		n    int
	)
	cmd := &cobra.Command{
		Use:   "query QUERY...",
		Short: "Send one query to a running server and print the records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := app.ParseHost(host)
			if err != nil {
				return err
			}
			q := strings.Join(args, " ")
			log.Info().Str("q", q).Int("n", n).Str("host", addr).Msg("retrieving")
			c := &client.Client{BaseURL: "http://" + addr}
			recs, err := c.Retrieve(cmd.Context(), q, n)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(recs, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVar(&host, "host", fmt.Sprintf("127.0.0.1:%d", app.DefaultPort), "Server address HOSTNAME[:PORT]")
	cmd.Flags().IntVarP(&n, "count", "n", 5, "Number of records to request")
	return cmd
}
