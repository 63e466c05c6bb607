package cmd

import (
	"fmt"
	"os"

	"eth-wallet-core/pkg/address"

	"github.com/spf13/cobra"
)

var ibanCmd = &cobra.Command{
	Use:   "iban <IBAN>",
	Short: "把直接型 ICAP IBAN 转换为以太坊地址",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		iban := args[0]
		if !address.IsValidIban(iban) {
			fmt.Println("无效的 IBAN")
			os.Exit(1)
		}
		if !address.IsDirectIban(iban) {
			fmt.Println("间接型 IBAN 无法直接转换为地址")
			os.Exit(1)
		}
		fmt.Println(address.IbanToAddress(iban))
	},
}

func init() {
	rootCmd.AddCommand(ibanCmd)
}
