package cmd

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var keystoreFile string

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "wallet-cli",
	Short: "以太坊钱包命令行工具",
	Long: `以太坊 / ERC-20 单地址钱包命令行工具。
支持生成并加密保存 BIP-39 种子、在线构造交易、离线签名、广播以及订阅钱包事件。`,
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&keystoreFile, "keystore", "k", "wallet.json", "Keystore 文件路径")
}

// readPassword 从终端读取密码，不回显
func readPassword(prompt string) string {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fail("读取密码失败", err)
	}
	return string(b)
}

func fail(msg string, err error) {
	fmt.Printf("%s: %v\n", msg, err)
	os.Exit(1)
}
