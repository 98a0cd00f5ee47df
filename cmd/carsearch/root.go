package main

import (
	"os"

	"carsearch_frontend/internal/search/client"
	"carsearch_frontend/internal/search/service"
	"carsearch_frontend/platform/config"
	"carsearch_frontend/platform/logger"

	"github.com/spf13/cobra"
)

const backendEnv = "SEARCH_BACKEND_URL"

func newRootCmd() *cobra.Command {
	var backendURL string

	root := &cobra.Command{
		Use:   "carsearch",
		Short: "Search the vehicle inventory from the command line",
		Long: `carsearch sends a structured ("form") or free-text ("text") search to the
vehicle search backend and prints the results as a table.

The backend base URL comes from SEARCH_BACKEND_URL (or a .env file) unless
--backend is given.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if backendURL != "" {
				return os.Setenv(backendEnv, backendURL)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&backendURL, "backend", "", "search backend base URL (overrides "+backendEnv+")")

	root.AddCommand(newFormCmd(), newTextCmd())
	return root
}

// newService loads configuration and builds a search service that logs to
// the command's stderr.
func newService(cmd *cobra.Command) (*service.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriter(cfg.Env, cmd.ErrOrStderr())
	return service.New(client.New(cfg, log), log), nil
}
