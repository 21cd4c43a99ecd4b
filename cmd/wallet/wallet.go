package wallet

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/keys"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/SafeMPC/flow-wallet-kit/internal/wallet"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	passwordFlag = "password"
	passwordEnv  = "WALLETKIT_KEY_PASSWORD"
	networksFlag = "networks"
	linkedFlag   = "linked"
	cachedFlag   = "cached"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("wallet",
		newKey(),
		newWatch(),
	)
}

// walletOutput 钱包在各网络上的账户
type walletOutput struct {
	Type     wallet.Type                        `json:"type"`
	ID       string                             `json:"id"`
	Accounts map[string][]types.AccountResponse `json:"accounts"`
}

type runOptions struct {
	networks []string
	linked   bool
	cached   bool
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice(networksFlag, nil, "Networks to scan (default: all configured networks)")
	cmd.Flags().BoolP(linkedFlag, "l", false, "Resolve child accounts and COAs of every account")
	cmd.Flags().Bool(cachedFlag, false, "Print the cached accounts without contacting the network")
}

func runFlags(cmd *cobra.Command) runOptions {
	networks, _ := cmd.Flags().GetStringSlice(networksFlag)
	linked, _ := cmd.Flags().GetBool(linkedFlag)
	cached, _ := cmd.Flags().GetBool(cachedFlag)
	return runOptions{networks: networks, linked: linked, cached: cached}
}

func (o runOptions) chains(s *api.Server) ([]flow.ChainID, error) {
	if len(o.networks) == 0 {
		return s.Networks, nil
	}
	return flow.ParseChainIDs(o.networks)
}

func walletOptions(s *api.Server) []wallet.Option {
	return []wallet.Option{
		wallet.WithStorage(s.Store),
		wallet.WithLinkedAccountProvider(s.Linked),
		wallet.WithMetrics(s.Metrics),
	}
}

// run 刷新（或读取缓存）后输出钱包账户
func run(ctx context.Context, w wallet.Wallet, opts runOptions, out io.Writer) error {
	if opts.cached {
		if err := w.LoadCache(ctx); err != nil {
			return err
		}
		if opts.linked {
			for _, list := range w.Accounts() {
				for _, a := range list {
					_ = a.LoadCache(ctx)
				}
			}
		}
	} else {
		ctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		if err := w.RefreshAccounts(ctx); err != nil {
			return err
		}
		if opts.linked {
			w.LoadLinkedAccounts(ctx)
		}
	}

	res := walletOutput{
		Type:     w.Type(),
		ID:       w.TypeID(),
		Accounts: make(map[string][]types.AccountResponse),
	}
	snapshot := w.Accounts()
	chains := make([]string, 0, len(snapshot))
	for chain := range snapshot {
		chains = append(chains, chain.String())
	}
	sort.Strings(chains)
	for _, chain := range chains {
		list := make([]types.AccountResponse, 0)
		for _, a := range snapshot[flow.ChainID(chain)] {
			list = append(list, a.Response())
		}
		res.Accounts[chain] = list
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
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

func loadKey(ctx context.Context, s *api.Server, id string, password string) (keys.Key, error) {
	return keys.Get(ctx, id, password, s.Store, keys.WithEnclave(s.Enclave))
}
