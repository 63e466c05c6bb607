package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"eth-wallet-core/pkg/bip32"
	"eth-wallet-core/pkg/bip39"
	"eth-wallet-core/pkg/keystore"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "初始化一个新的钱包 (生成助记词并加密保存种子)",
	Long:  `生成新的 BIP-39 助记词，派生十六进制种子并用密码加密保存为 keystore 文件。wallet-server 通过 wallet.keystore_path 加载该文件。`,
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("path")
		words, _ := cmd.Flags().GetInt("words")
		if _, err := os.Stat(keystoreFile); err == nil {
			fmt.Printf("错误: 文件 %s 已存在。请先删除或指定其他文件名。\n", keystoreFile)
			os.Exit(1)
		}

		fmt.Println("正在初始化新钱包...")
		fmt.Println("请设置一个强密码来保护您的种子。")

		// 1. 输入密码
		password := readPassword("输入密码: ")
		if password != readPassword("确认密码: ") {
			fmt.Println("两次输入的密码不一致！")
			os.Exit(1)
		}
		if len(password) < 6 {
			fmt.Println("密码长度至少需要 6 位。")
			os.Exit(1)
		}

		// 2. 生成助记词和种子
		service := bip39.NewMnemonicService()
		mnemonic, err := service.GenerateMnemonic(words / 3 * 32)
		if err != nil {
			fail("生成助记词失败", err)
		}
		seedHex, err := service.SeedHex(mnemonic, "")
		if err != nil {
			fail("生成种子失败", err)
		}

		// 3. 加密保存
		fmt.Println("正在加密保存...")
		encryptedKey, err := keystore.EncryptSeed(seedHex, password)
		if err != nil {
			fail("加密失败", err)
		}
		if err := encryptedKey.SaveToFile(keystoreFile); err != nil {
			fail("保存文件失败", err)
		}

		addr, err := deriveAddress(service.MnemonicToSeed(mnemonic, ""), path)
		if err != nil {
			fail("派生地址失败", err)
		}

		fmt.Printf("\n✅ 钱包已初始化！\n")
		fmt.Printf("文件位置: %s\n", keystoreFile)
		fmt.Printf("地址 [%s]: %s\n", path, addr)
		fmt.Println("\n⚠️  警告: 请务必记住您的密码！如果丢失密码，您将无法恢复钱包。")

		fmt.Print("\n是否需要现在显示助记词以便备份? (y/N): ")
		input, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))
		if input == "y" || input == "yes" {
			fmt.Println("\n---------------------------------------------------")
			fmt.Println("助记词 (请抄写在纸上并安全保管):")
			fmt.Println(mnemonic)
			fmt.Println("---------------------------------------------------")
		}
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("path", "m/44'/60'/0'", "私钥派生路径")
	initCmd.Flags().Int("words", 24, "助记词单词数 (12 或 24)")
}

func deriveAddress(seed []byte, path string) (string, error) {
	w, err := bip32.NewMasterKeyFromSeed(seed)
	if err != nil {
		return "", err
	}
	key, err := w.DerivePath(path)
	if err != nil {
		return "", err
	}
	return key.Address()
}
