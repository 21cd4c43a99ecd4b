package wallet

import (
	"context"
	"io"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/SafeMPC/flow-wallet-kit/internal/wallet"
	"github.com/spf13/cobra"
)

func newWatch() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <address>",
		Short: "Reads a watch-only wallet for an address on every network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := runFlags(cmd)

			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}
			return command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				return runWatchWallet(ctx, s, args[0], opts, cmd.OutOrStdout())
			})
		},
	}

	addRunFlags(cmd)
	return cmd
}

func runWatchWallet(ctx context.Context, s *api.Server, address string, opts runOptions, out io.Writer) error {
	addr, err := flow.ParseAddress(address)
	if err != nil {
		return err
	}
	chains, err := opts.chains(s)
	if err != nil {
		return err
	}

	w, err := wallet.NewWatchWallet(addr, chains, s.Access, walletOptions(s)...)
	if err != nil {
		return err
	}
	return run(ctx, w, opts, out)
}
