package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the city-explorer command tree. Running it without a
// subcommand starts the server.
func newRootCmd() *cobra.Command {
	var port string

	root := &cobra.Command{
		Use:   "city-explorer",
		Short: "City explorer aggregation API",
		Long: `city-explorer resolves a place name to coordinates and serves weather,
trails, movies and restaurant listings for it from third-party providers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}
	root.PersistentFlags().StringVar(&port, "port", "", "Port to listen on (overrides PORT and config)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create the location table and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}
	root.AddCommand(serve, migrate)
	return root
}
