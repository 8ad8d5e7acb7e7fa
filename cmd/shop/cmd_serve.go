package main

import (
	"github.com/spf13/cobra"

	"github.com/lopataa/schoolshop/internal/server"
)

// shop serve — start the HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start()
	},
}
