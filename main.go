package main

import (
	"os"

	"github.com/spf13/cobra"

	"yashubustudio/reviewsentiment/internal/app"
)

func main() {
	var (
		configPath string
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:          "reviewsentiment",
		Short:        "Desktop demo that classifies random reviews",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(configPath, verbose)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config.json (default: ./config.json)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
