package probe

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const livenessProbeKey = "liveness-probe"

func newLiveness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liveness",
		Short: "Runs liveness probes",
		Long: `This command writes and reads back a probe entry in the configured storage backend.
Exits non-zero if the storage backend cannot be used.`,
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool(verboseFlag)

			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}

			err = command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				return runLiveness(ctx, s, verbose)
			})
			if err != nil {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")
	return cmd
}

func runLiveness(ctx context.Context, s *api.Server, verbose bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	value := []byte(start.UTC().Format(time.RFC3339Nano))

	if err := s.Store.Set(ctx, livenessProbeKey, value); err != nil {
		log.Error().Err(err).Msg("Storage write probe failed")
		return err
	}

	got, ok, err := s.Store.Get(ctx, livenessProbeKey)
	if err != nil || !ok || string(got) != string(value) {
		log.Error().Err(err).Bool("found", ok).Msg("Storage read probe failed")
		return fmt.Errorf("storage read probe failed")
	}

	if err := s.Store.Remove(ctx, livenessProbeKey); err != nil {
		log.Warn().Err(err).Msg("Failed to remove probe entry")
	}

	if verbose {
		log.Info().Str("storage", s.Store.SecurityLevel().String()).Dur("took", time.Since(start)).Msg("Liveness probe succeeded")
	}
	return nil
}
