package probe

import (
	"github.com/spf13/cobra"
)

func newLiveness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liveness",
		Short: "Runs the liveness probe.",
		Long: `Runs a liveness probe against the local server.
Fails with a non-zero exit code if the server does not respond.`,
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				verbose = false
			}

			runProbe("/-/healthy", verbose)
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Prints the probe response body.")

	return cmd
}
