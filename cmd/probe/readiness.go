package probe

import (
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/safehost/go-provider/internal/config"
)

const probeTimeout = 5 * time.Second

func newReadiness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Runs the readiness probe.",
		Long: `Runs a readiness probe against the local server.
Fails with a non-zero exit code if any server component is uninitialized.`,
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				verbose = false
			}

			runProbe("/-/ready", verbose)
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Prints the probe response body.")

	return cmd
}

// runProbe queries a management endpoint of the locally running server and
// exits non-zero unless it answers 200.
func runProbe(path string, verbose bool) {
	cfg := config.DefaultServiceConfigFromEnv()

	client := resty.New().
		SetBaseURL("http://localhost" + cfg.Echo.ListenAddress).
		SetTimeout(probeTimeout)

	res, err := client.R().Get(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Probe request failed")
	}

	if verbose {
		fmt.Println(res.String())
	}

	if res.StatusCode() != 200 {
		os.Exit(1)
	}

	os.Exit(0)
}
