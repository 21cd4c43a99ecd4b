package cmd

import (
	"fmt"
	"os"

	"github.com/SafeMPC/flow-wallet-kit/cmd/accounts"
	"github.com/SafeMPC/flow-wallet-kit/cmd/db"
	"github.com/SafeMPC/flow-wallet-kit/cmd/keys"
	"github.com/SafeMPC/flow-wallet-kit/cmd/probe"
	"github.com/SafeMPC/flow-wallet-kit/cmd/server"
	"github.com/SafeMPC/flow-wallet-kit/cmd/wallet"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "walletkit",
	Short: "Flow wallet kit",
	Long: `Flow wallet kit manages signing keys, discovers the Flow accounts they control
through the key indexer and resolves linked child accounts and EVM accounts.

Configuration is read from WALLETKIT_* environment variables and optionally a config file.`,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String(command.ConfigFlag, "", "Path to a config file (yaml, json or toml)")

	rootCmd.AddCommand(
		server.New(),
		probe.New(),
		db.New(),
		keys.New(),
		accounts.New(),
		wallet.New(),
	)
}
