package keys

import (
	"context"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/keys"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newDelete() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <key id>",
		Short: "Deletes a stored key, hardware keys are destroyed in the enclave as well",
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
				return deleteKey(ctx, s, args[0], pw)
			})
		},
	}

	addPasswordFlag(cmd)
	return cmd
}

// deleteKey 先用口令解密确认持有者，再删除
func deleteKey(ctx context.Context, s *api.Server, id string, password string) error {
	k, err := keys.Get(ctx, id, password, s.Store, keys.WithEnclave(s.Enclave))
	if err != nil {
		return err
	}

	if hw, ok := k.(*keys.HardwareKey); ok {
		err = hw.Destroy(ctx, id)
	} else {
		err = k.Remove(ctx, id)
	}
	if err != nil {
		return err
	}

	log.Info().Str("id", id).Msg("Key deleted")
	return nil
}
