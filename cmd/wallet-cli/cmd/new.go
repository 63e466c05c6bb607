package cmd

import (
	"fmt"

	"eth-wallet-core/pkg/bip32"
	"eth-wallet-core/pkg/bip39"

	"github.com/spf13/cobra"
)

// newCmd 只在屏幕上生成助记词和派生结果，不写文件
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "生成一个新的助记词 (不保存)",
	Long:  `生成一个新的随机 BIP-39 助记词，并显示派生的种子、主公钥和以太坊地址。`,
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("path")

		fmt.Println("正在生成新钱包...")
		fmt.Println("---------------------------------------------------")

		// 1. 生成助记词
		mnemonicService := bip39.NewMnemonicService()
		mnemonic, err := mnemonicService.GenerateMnemonic(256) // 24 words
		if err != nil {
			fail("生成助记词失败", err)
		}
		fmt.Printf("助记词 (Mnemonic): \n%s\n", mnemonic)
		fmt.Println("---------------------------------------------------")

		// 2. 生成种子
		seedHex, err := mnemonicService.SeedHex(mnemonic, "")
		if err != nil {
			fail("生成种子失败", err)
		}
		fmt.Printf("种子 (Seed Hex): %s\n", seedHex)

		// 3. 主密钥
		wallet, err := bip32.NewMasterKeyFromSeed(mnemonicService.MnemonicToSeed(mnemonic, ""))
		if err != nil {
			fail("生成主密钥失败", err)
		}
		pubMasterKey, err := wallet.MasterKey().Neuter()
		if err != nil {
			fail("转换主公钥失败", err)
		}
		fmt.Printf("主公钥 (xpub): %s\n", pubMasterKey.String())
		fmt.Println("---------------------------------------------------")

		// 4. 派生地址
		ethKey, err := wallet.DerivePath(path)
		if err != nil {
			fail("派生失败", err)
		}
		ethAddr, err := ethKey.Address()
		if err != nil {
			fail("生成地址失败", err)
		}
		fmt.Printf("Ethereum Address [%s]: %s\n", path, ethAddr)
		fmt.Println("---------------------------------------------------")
		fmt.Println("请妥善保管您的助记词！任何拥有助记词的人都可以控制该钱包的所有资产。")
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().String("path", "m/44'/60'/0'/0/0", "私钥派生路径")
}
