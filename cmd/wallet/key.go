package wallet

import (
	"context"
	"io"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/SafeMPC/flow-wallet-kit/internal/wallet"
	"github.com/spf13/cobra"
)

func newKey() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key <key id>",
		Short: "Discovers the accounts controlled by a stored key on every network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(cmd)
			if err != nil {
				return err
			}
			opts := runFlags(cmd)

			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}
			return command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				return runKeyWallet(ctx, s, args[0], pw, opts, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().StringP(passwordFlag, "p", "", "Password protecting the stored key (default $"+passwordEnv+")")
	addRunFlags(cmd)
	return cmd
}

func runKeyWallet(ctx context.Context, s *api.Server, id string, password string, opts runOptions, out io.Writer) error {
	k, err := loadKey(ctx, s, id, password)
	if err != nil {
		return err
	}
	chains, err := opts.chains(s)
	if err != nil {
		return err
	}

	w, err := wallet.NewKeyWallet(k, chains, s.Indexer, walletOptions(s)...)
	if err != nil {
		return err
	}
	return run(ctx, w, opts, out)
}
