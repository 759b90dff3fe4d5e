package cmd

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect the remote logs, then parse and export them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		if _, err := collect(ctx); err != nil {
			return err
		}
		return parse(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
