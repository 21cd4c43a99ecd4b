package keys

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"os"

	"github.com/SafeMPC/flow-wallet-kit/internal/keys"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	passwordFlag = "password"
	passwordEnv  = "WALLETKIT_KEY_PASSWORD"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("keys",
		newCreate(),
		newRestore(),
		newList(),
		newShow(),
		newDelete(),
	)
}

func addPasswordFlag(cmd *cobra.Command) {
	cmd.Flags().StringP(passwordFlag, "p", "", "Password protecting the stored key (default $"+passwordEnv+")")
}

func password(cmd *cobra.Command) (string, error) {
	p, _ := cmd.Flags().GetString(passwordFlag)
	if p == "" {
		p = os.Getenv(passwordEnv)
	}
	if p == "" {
		return "", errors.Errorf("--%s or %s is required", passwordFlag, passwordEnv)
	}
	return p, nil
}

type keyOutput struct {
	ID             string            `json:"id"`
	Type           keys.KeyType      `json:"type"`
	HardwareBacked bool              `json:"hardwareBacked"`
	PublicKeys     map[string]string `json:"publicKeys"`
	EVMAddress     string            `json:"evmAddress,omitempty"`
	Mnemonic       []string          `json:"mnemonic,omitempty"`
}

func describe(k keys.Key, withMnemonic bool) keyOutput {
	out := keyOutput{
		ID:             k.ID(),
		Type:           k.Type(),
		HardwareBacked: k.IsHardwareBacked(),
		PublicKeys:     make(map[string]string),
	}
	for _, algo := range k.SupportedSigningAlgorithms() {
		if pub := k.PublicKey(algo); len(pub) > 0 {
			out.PublicKeys[algo.String()] = hex.EncodeToString(pub)
		}
	}
	if eth, ok := k.(keys.EthereumKey); ok {
		if addr, err := eth.EthAddress(); err == nil {
			out.EVMAddress = addr
		}
	}
	if seed, ok := k.(*keys.SeedPhraseKey); ok && withMnemonic {
		out.Mnemonic = seed.Mnemonic()
	}
	return out
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
