package main

import (
	"github.com/spf13/cobra"

	"github.com/stellarlinkco/havoice-eval/api"
	"github.com/stellarlinkco/havoice-eval/internal/store"
)

func newServeCmd(st *cliState) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored run history over HTTP",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return st.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(st.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			srv, err := api.NewServer(db)
			if err != nil {
				return err
			}
			return srv.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
