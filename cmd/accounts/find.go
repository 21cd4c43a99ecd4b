package accounts

import (
	"context"
	"io"

	"github.com/SafeMPC/flow-wallet-kit/internal/account"
	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/spf13/cobra"
)

func newFind() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <public key hex>",
		Short: "Finds the accounts a public key is registered on through the key indexer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			network, _ := cmd.Flags().GetString(networkFlag)
			fullWeight, _ := cmd.Flags().GetBool(fullWeightFlag)

			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}
			return command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				return findAccounts(ctx, s, network, args[0], fullWeight, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().StringP(networkFlag, "n", string(flow.Mainnet), "Flow network")
	cmd.Flags().Bool(fullWeightFlag, true, "Only return accounts with a full weight key")
	return cmd
}

func findAccounts(ctx context.Context, s *api.Server, network string, publicKey string, fullWeight bool, w io.Writer) error {
	chain, err := flow.ParseChainID(network)
	if err != nil {
		return err
	}

	var found []flow.Account
	if fullWeight {
		found, err = s.Indexer.FindAccountsWithFullWeight(ctx, publicKey, chain)
	} else {
		found, err = s.Indexer.FindFlowAccounts(ctx, publicKey, chain)
	}
	if err != nil {
		return err
	}

	res := types.AccountsByKeyResponse{
		Network:   chain.String(),
		PublicKey: publicKey,
		Accounts:  make([]types.AccountResponse, 0, len(found)),
	}
	for _, a := range found {
		res.Accounts = append(res.Accounts, account.FlowAccountResponse(a, chain))
	}
	return printJSON(w, res)
}
