package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"eth-wallet-core/internal/service/ledger"
	"eth-wallet-core/pkg/address"
	"eth-wallet-core/pkg/bip32"
	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/keystore"
	"eth-wallet-core/pkg/wallet/types"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "离线签名交易 (Offline Signing)",
	Long:  `读取未签名的交易 JSON 文件，使用 Keystore 中的种子签名，并输出已签名的交易 (Raw Tx)。`,
	Run: func(cmd *cobra.Command, args []string) {
		inputFile, _ := cmd.Flags().GetString("input")
		outputFile, _ := cmd.Flags().GetString("output")

		// 1. 读取未签名交易
		data, err := os.ReadFile(inputFile)
		if err != nil {
			fail("读取输入文件失败", err)
		}
		var unsignedTx types.UnsignedTransaction
		if err := json.Unmarshal(data, &unsignedTx); err != nil {
			fail("解析交易文件失败", err)
		}

		// 显示交易详情供用户确认
		printUnsigned(&unsignedTx)

		// 2. 加载 Keystore 并解密种子
		fmt.Printf("\n正在从 %s 加载 Keystore...\n", keystoreFile)
		encryptedKey, err := keystore.LoadFromFile(keystoreFile)
		if err != nil {
			fail("加载 Keystore 失败", err)
		}
		seedHex, err := keystore.DecryptSeed(encryptedKey, readPassword("请输入 Keystore 密码以确认签名: "))
		if err != nil {
			fail("解密失败 (密码错误?)", err)
		}

		// 3. 派生私钥并核对发送方
		seed, err := hex.DecodeString(seedHex)
		if err != nil {
			fail("种子格式错误", err)
		}
		key, err := bip32.DeriveECDSA(seed, unsignedTx.DerivationPath)
		if err != nil {
			fail("私钥派生失败", err)
		}
		if from := crypto.PubkeyToAddress(key.PublicKey).Hex(); !address.Equal(from, unsignedTx.From) {
			fmt.Printf("派生地址 %s 与交易发送方 %s 不一致\n", strings.ToLower(from), unsignedTx.From)
			os.Exit(1)
		}

		// 4. 签名
		signer := ethtypes.LatestSignerForChainID(big.NewInt(unsignedTx.ChainID))
		tx, err := ethtypes.SignTx(unsignedTx.EthTx(), signer, key)
		if err != nil {
			fail("签名失败", err)
		}
		signed, err := (&ledger.SignedTx{Tx: tx, Replaces: unsignedTx.Replaces}).Envelope()
		if err != nil {
			fail("编码交易失败", err)
		}

		// 5. 输出结果
		outputData, _ := json.MarshalIndent(signed, "", "  ")
		if err := os.WriteFile(outputFile, outputData, 0644); err != nil {
			fail("保存结果失败", err)
		}

		fmt.Printf("\n✅ 签名成功!\n")
		fmt.Printf("TxHash: %s\n", signed.TxHash)
		fmt.Printf("已保存到: %s\n", outputFile)
	},
}

func init() {
	rootCmd.AddCommand(signCmd)
	signCmd.Flags().StringP("input", "i", "unsigned.json", "未签名的交易文件路径")
	signCmd.Flags().StringP("output", "o", "signed.json", "签名后的输出文件路径")
}

func printUnsigned(u *types.UnsignedTransaction) {
	fmt.Println("\n================ 待签名交易 ================")
	fmt.Printf("Chain:      %s (ID: %d)\n", u.Chain, u.ChainID)
	fmt.Printf("From:       %s\n", u.From)
	fmt.Printf("To:         %s\n", u.To)
	fmt.Printf("Value:      %s\n", u.Value)
	fmt.Printf("Nonce:      %d\n", u.Nonce)
	fmt.Printf("GasLimit:   %d\n", u.GasLimit)
	if u.Fee != nil {
		f := fee.ToFields(u.Fee)
		switch u.Fee.Kind() {
		case fee.KindFeeMarket:
			fmt.Printf("MaxFee:     %s (tip %s)\n", f.MaxFeePerGas, f.MaxPriorityFeePerGas)
		default:
			fmt.Printf("GasPrice:   %s\n", f.GasPrice)
		}
	}
	if len(u.Data) > 0 {
		fmt.Printf("Data:       %s\n", u.Data)
	}
	if u.Replaces != nil {
		fmt.Printf("Replaces:   %s\n", u.Replaces.ID)
	}
	fmt.Printf("Path:       %s\n", u.DerivationPath)
	fmt.Println("============================================")
}
