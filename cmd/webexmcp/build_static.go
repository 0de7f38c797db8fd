package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DavidRHerbert/webex-mcp/internal/assets"
)

var (
	staticSrc  *string
	staticDest *string
)

var buildStaticCmd = &cobra.Command{
	Use:   "build-static",
	Short: "Copy the compiled frontend into the server's static directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := assets.Sync(*staticSrc, *staticDest)
		if errors.Is(err, assets.ErrMissingSource) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Run the frontend build first. Missing: %s\n", *staticSrc)
			return errSilent
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Copied %s to %s\n", *staticSrc, *staticDest)
		return nil
	},
}

func init() {
	staticSrc = buildStaticCmd.Flags().String("src", "dist", "compiled frontend directory")
	staticDest = buildStaticCmd.Flags().String("dest", "server/static", "server static directory")
	rootCmd.AddCommand(buildStaticCmd)
}
