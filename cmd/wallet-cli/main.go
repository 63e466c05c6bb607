package main

import "eth-wallet-core/cmd/wallet-cli/cmd"

func main() {
	cmd.Execute()
}
