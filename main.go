package main

import "github.com/SafeMPC/flow-wallet-kit/cmd"

func main() {
	cmd.Execute()
}
