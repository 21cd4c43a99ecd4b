package keys

import (
	"context"
	"io"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/keys"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	typeFlag  = "type"
	wordsFlag = "words"
)

func newCreate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Creates a new key and stores it encrypted",
		Long: `Creates a new seed phrase, raw or hardware key and stores it encrypted with the given password.
The mnemonic of a new seed phrase key is printed exactly once.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := password(cmd)
			if err != nil {
				return err
			}
			keyType, _ := cmd.Flags().GetString(typeFlag)
			words, _ := cmd.Flags().GetInt(wordsFlag)

			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}
			return command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				return createKey(ctx, s, keyType, words, pw, cmd.OutOrStdout())
			})
		},
	}

	addPasswordFlag(cmd)
	cmd.Flags().StringP(typeFlag, "t", string(keys.KeyTypeSeedPhrase), "Key type: seed_phrase, raw or hardware")
	cmd.Flags().Int(wordsFlag, 12, "Mnemonic word count for seed phrase keys")
	return cmd
}

func createKey(ctx context.Context, s *api.Server, typeName string, words int, password string, w io.Writer) error {
	keyType, err := keys.ParseKeyType(typeName)
	if err != nil {
		return err
	}

	var k keys.Key
	switch keyType {
	case keys.KeyTypeSeedPhrase:
		k, err = keys.CreateSeedPhraseKeyWithOptions(keys.SeedPhraseKeyOptions{WordCount: words}, s.Store)
	case keys.KeyTypeRaw:
		k, err = keys.CreateRawKey(s.Store)
	case keys.KeyTypeHardware:
		k, err = keys.CreateHardwareKey(ctx, s.Enclave, s.Store)
	}
	if err != nil {
		return err
	}

	if err := k.Store(ctx, k.ID(), password); err != nil {
		return err
	}

	log.Info().Str("id", k.ID()).Str("type", string(k.Type())).Msg("Key created")
	return printJSON(w, describe(k, true))
}
