package keys

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/keys"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/spf13/cobra"
)

func newList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lists the IDs of all stored keys",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}
			return command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				return listKeys(ctx, s, cmd.OutOrStdout())
			})
		},
	}
}

func listKeys(ctx context.Context, s *api.Server, w io.Writer) error {
	ids, err := keys.AllKeys(ctx, s.Store)
	if err != nil {
		return err
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, err := fmt.Fprintln(w, id); err != nil {
			return err
		}
	}
	return nil
}
