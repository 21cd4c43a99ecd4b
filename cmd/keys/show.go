package keys

import (
	"context"
	"io"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/keys"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/spf13/cobra"
)

func newShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <key id>",
		Short: "Decrypts a stored key and prints its public keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(cmd)
			if err != nil {
				return err
			}
			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}
			return command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				return showKey(ctx, s, args[0], pw, cmd.OutOrStdout())
			})
		},
	}

	addPasswordFlag(cmd)
	return cmd
}

func showKey(ctx context.Context, s *api.Server, id string, password string, w io.Writer) error {
	k, err := keys.Get(ctx, id, password, s.Store, keys.WithEnclave(s.Enclave))
	if err != nil {
		return err
	}
	return printJSON(w, describe(k, false))
}
