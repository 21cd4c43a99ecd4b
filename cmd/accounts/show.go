package accounts

import (
	"context"
	"io"

	"github.com/SafeMPC/flow-wallet-kit/internal/account"
	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/spf13/cobra"
)

func newShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <address>",
		Short: "Reads an account from the access node, optionally with its child accounts and COA",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			network, _ := cmd.Flags().GetString(networkFlag)
			linked, _ := cmd.Flags().GetBool(linkedFlag)

			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}
			return command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				return showAccount(ctx, s, network, args[0], linked, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().StringP(networkFlag, "n", string(flow.Mainnet), "Flow network")
	cmd.Flags().BoolP(linkedFlag, "l", false, "Resolve child accounts and the COA")
	return cmd
}

func showAccount(ctx context.Context, s *api.Server, network string, address string, linked bool, w io.Writer) error {
	chain, err := flow.ParseChainID(network)
	if err != nil {
		return err
	}
	addr, err := flow.ParseAddress(address)
	if err != nil {
		return err
	}

	fa, err := s.Access.GetAccount(ctx, chain, addr)
	if err != nil {
		return err
	}

	acc := account.New(*fa, chain, nil,
		account.WithStorage(s.Store),
		account.WithLinkedAccountProvider(s.Linked),
		account.WithMetrics(s.Metrics),
	)
	if linked {
		acc.FetchAccount(ctx)
	}
	return printJSON(w, acc.Response())
}
