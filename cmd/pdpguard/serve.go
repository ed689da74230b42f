package main

import (
	"github.com/spf13/cobra"

	"github.com/agentops/pdpguard/internal/server"
)

// newServeCmd starts the HTTP API.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API (compile, simulate, execute, runs, SSE events)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := server.New(a.runner, a.compiler, a.fetcher, a.store, a.bus, a.logger)
			return srv.ListenAndServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to the config value)")
	return cmd
}
