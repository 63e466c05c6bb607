package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"eth-wallet-core/internal/indexer"
	"eth-wallet-core/internal/service/ledger"
	"eth-wallet-core/pkg/address"
	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// buildTxCmd Online 端：用只读钱包查询余额和 nonce，构造未签名交易
var buildTxCmd = &cobra.Command{
	Use:   "build-tx",
	Short: "构造未签名交易 (Online)",
	Long:  `使用公钥创建只读钱包，从索引服务加载余额、nonce 和手续费报价，校验后输出 unsigned.json。`,
	Run: func(cmd *cobra.Command, args []string) {
		pubKey, _ := cmd.Flags().GetString("pubkey")
		to, _ := cmd.Flags().GetString("to")
		amount, _ := cmd.Flags().GetString("amount")
		indexerURL, _ := cmd.Flags().GetString("indexer")
		chainID, _ := cmd.Flags().GetInt64("chain-id")
		feeModel, _ := cmd.Flags().GetString("fee-model")
		token, _ := cmd.Flags().GetString("token")
		symbol, _ := cmd.Flags().GetString("symbol")
		outputFile, _ := cmd.Flags().GetString("output")

		value, err := decimal.NewFromString(amount)
		if err != nil || !value.IsInteger() {
			fmt.Println("金额必须是最小单位的整数")
			os.Exit(1)
		}
		kind, err := fee.ParseKind(feeModel)
		if err != nil {
			fail("手续费类型无效", err)
		}
		if address.IsValidIban(to) && address.IsDirectIban(to) {
			to = address.IbanToAddress(to)
		}

		asset := types.NativeAsset(symbol)
		if token != "" {
			asset = types.TokenAsset(symbol, token)
		}

		api := indexer.NewClient(indexerURL, &http.Client{Timeout: 30 * time.Second}, zap.NewNop())
		l, err := ledger.New(ledger.Options{
			Asset:     asset,
			PublicKey: pubKey,
			ChainID:   chainID,
			FeeKind:   kind,
			API:       api,
		})
		if err != nil {
			fail("创建只读钱包失败", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := l.Load(ctx); err != nil {
			fail("加载钱包失败", err)
		}

		pending, err := l.CreateTx(to, value.BigInt())
		if err != nil {
			fail("构造交易失败", err)
		}

		data, _ := json.MarshalIndent(pending.Unsigned, "", "  ")
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			fail("保存失败", err)
		}

		fmt.Printf("✅ 未签名交易已构造!\n")
		fmt.Printf("From:  %s (nonce %d)\n", pending.Unsigned.From, pending.Unsigned.Nonce)
		fmt.Printf("最大手续费: %s\n", l.DefaultFee())
		fmt.Printf("文件: %s\n", outputFile)
	},
}

func init() {
	rootCmd.AddCommand(buildTxCmd)

	buildTxCmd.Flags().String("pubkey", "", "钱包公钥 (PublicKey 导出的 JSON 或十六进制)")
	buildTxCmd.Flags().String("to", "", "接收方地址或直接型 IBAN")
	buildTxCmd.Flags().String("amount", "0", "金额 (最小单位)")
	buildTxCmd.Flags().String("indexer", "http://localhost:3000", "索引服务地址")
	buildTxCmd.Flags().Int64("chain-id", 1, "Chain ID (1=Mainnet, 11155111=Sepolia)")
	buildTxCmd.Flags().String("fee-model", "legacy", "手续费模型: legacy 或 eip1559")
	buildTxCmd.Flags().String("token", "", "ERC-20 合约地址，为空表示原生币")
	buildTxCmd.Flags().String("symbol", "ETH", "资产符号")
	buildTxCmd.Flags().StringP("output", "o", "unsigned.json", "输出文件")

	buildTxCmd.MarkFlagRequired("pubkey")
	buildTxCmd.MarkFlagRequired("to")
}
