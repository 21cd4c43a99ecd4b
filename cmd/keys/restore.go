package keys

import (
	"context"
	"encoding/hex"
	"io"
	"strings"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/keys"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRestore() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <mnemonic | private key hex | hardware label>",
		Short: "Restores a key from its secret and stores it encrypted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(cmd)
			if err != nil {
				return err
			}
			keyType, _ := cmd.Flags().GetString(typeFlag)

			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}
			return command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				return restoreKey(ctx, s, keyType, args[0], pw, cmd.OutOrStdout())
			})
		},
	}

	addPasswordFlag(cmd)
	cmd.Flags().StringP(typeFlag, "t", string(keys.KeyTypeSeedPhrase), "Key type: seed_phrase, raw or hardware")
	return cmd
}

func restoreKey(ctx context.Context, s *api.Server, typeName string, secret string, password string, w io.Writer) error {
	keyType, err := keys.ParseKeyType(typeName)
	if err != nil {
		return err
	}

	var k keys.Key
	switch keyType {
	case keys.KeyTypeSeedPhrase:
		k, err = keys.RestoreSeedPhraseKey(secret, s.Store)
	case keys.KeyTypeRaw:
		raw, decodeErr := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(secret), "0x"))
		if decodeErr != nil {
			return errors.Wrap(types.ErrInvalidPrivateKey, decodeErr.Error())
		}
		k, err = keys.RestoreRawKey(raw, s.Store)
	case keys.KeyTypeHardware:
		k, err = keys.RestoreHardwareKey(secret, s.Enclave, s.Store)
	}
	if err != nil {
		return err
	}

	if err := k.Store(ctx, k.ID(), password); err != nil {
		return err
	}

	log.Info().Str("id", k.ID()).Str("type", string(k.Type())).Msg("Key restored")
	return printJSON(w, describe(k, false))
}
