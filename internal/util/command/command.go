package command

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/safehost/go-provider/internal/api"
	"github/safehost/go-provider/internal/config"
)

// NewSubcommandGroup returns a new command group with the given name, attaching
// all provided subcommands. Invoking the group itself only prints its help.
func NewSubcommandGroup(use string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use: use,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Fatal().Err(err).Msg("Failed to print help")
			}

			os.Exit(0)
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}

// WithServer runs the given function against a fully initialized (but not
// listening) server, shutting it down afterwards. Meant for one-shot CLI
// commands that need the server's components.
func WithServer(ctx context.Context, cfg config.Server, f func(ctx context.Context, s *api.Server) error) error {
	s := api.NewServer(cfg)

	if err := s.InitComponents(); err != nil {
		log.Error().Err(err).Msg("Failed to initialize server components")
		return err
	}

	defer func() {
		if err := s.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to shut down server")
		}
	}()

	return f(ctx, s)
}
