package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/cerche/internal/app"
	"github.com/hyperifyio/cerche/internal/search"
)

// newSearchCmd queries the configured backend directly, bypassing the
// server and the page pipeline. It is meant for checking credentials and
// backend output.
func newSearchCmd() *cobra.Command {
	opts := &serveOptions{cfg: app.DefaultConfig()}
	var n int
	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Query the configured backend and print its raw candidates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts.configPath, opts.cfg)
			if err != nil {
				return err
			}
			if err := app.ValidateConfig(cfg); err != nil {
				return err
			}
			backend, err := app.NewBackend(cfg, nil)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()
			c, err := backend.Search(ctx, strings.Join(args, " "), n)
			if err != nil {
				return err
			}
			return printCandidates(cmd, backend.Name(), c)
		},
	}
	bindServeFlags(cmd, opts)
	cmd.Flags().IntVarP(&n, "count", "n", 5, "Number of results to request")
	return cmd
}

func printCandidates(cmd *cobra.Command, backend string, c search.Candidates) error {
	w := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(w, "%s: %d %s candidates\n", backend, c.Len(), c.Mode); err != nil {
		return err
	}
	if c.Mode == search.ModeRecords {
		for i, r := range c.Records {
			if _, err := fmt.Fprintf(w, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.URL, r.Content); err != nil {
				return err
			}
		}
		return nil
	}
	for i, u := range c.URLs {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, u); err != nil {
			return err
		}
	}
	return nil
}
