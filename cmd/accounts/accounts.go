package accounts

import (
	"encoding/json"
	"io"

	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/spf13/cobra"
)

const (
	networkFlag    = "network"
	fullWeightFlag = "full-weight"
	linkedFlag     = "linked"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("accounts",
		newFind(),
		newShow(),
	)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
