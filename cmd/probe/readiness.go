package probe

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newReadiness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Runs readiness probes",
		Long: `This command checks that the key indexer and the access node of every configured
network answer HTTP requests. Exits non-zero if one of them is unreachable.`,
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool(verboseFlag)

			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}

			err = command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				return runReadiness(ctx, s, verbose)
			})
			if err != nil {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")
	return cmd
}

func runReadiness(ctx context.Context, s *api.Server, verbose bool) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, chain := range s.Networks {
		if endpoint := s.Config.Indexer.Endpoints[chain.String()]; endpoint != "" {
			g.Go(func() error { return probeEndpoint(ctx, chain, "indexer", endpoint, verbose) })
		}
		if endpoint := s.Config.Access.Endpoints[chain.String()]; endpoint != "" {
			g.Go(func() error { return probeEndpoint(ctx, chain, "access", endpoint, verbose) })
		}
	}
	return g.Wait()
}

// probeEndpoint 任何 HTTP 响应都视为可达
func probeEndpoint(ctx context.Context, chain flow.ChainID, name string, endpoint string, verbose bool) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Error().Err(err).Str("chain", chain.String()).Str("upstream", name).Msg("Invalid upstream endpoint")
		return err
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("chain", chain.String()).Str("upstream", name).Str("endpoint", endpoint).Msg("Upstream is unreachable")
		return err
	}
	res.Body.Close()

	if verbose {
		log.Info().
			Str("chain", chain.String()).
			Str("upstream", name).
			Int("status", res.StatusCode).
			Dur("took", time.Since(start)).
			Msg("Upstream is reachable")
	}
	return nil
}
