package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"eth-wallet-core/internal/indexer"
	"eth-wallet-core/internal/service/ledger"
	"eth-wallet-core/pkg/address"
	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// importCmd Online 端：用外部私钥把余额清扫进钱包，不需要钱包自己的种子
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "导入外部私钥的余额 (Online)",
	Long: `读取外部私钥地址的余额和 nonce，构造清扫交易并用该私钥签名后广播。
默认转入 --pubkey 对应的钱包地址，也可以用 --to 指定其他收款方。`,
	Run: func(cmd *cobra.Command, args []string) {
		pubKey, _ := cmd.Flags().GetString("pubkey")
		to, _ := cmd.Flags().GetString("to")
		indexerURL, _ := cmd.Flags().GetString("indexer")
		chainID, _ := cmd.Flags().GetInt64("chain-id")
		feeModel, _ := cmd.Flags().GetString("fee-model")
		token, _ := cmd.Flags().GetString("token")
		symbol, _ := cmd.Flags().GetString("symbol")
		explorer, _ := cmd.Flags().GetString("explorer")

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
			Asset:         asset,
			PublicKey:     pubKey,
			ChainID:       chainID,
			FeeKind:       kind,
			ExplorerTxURL: explorer,
			API:           api,
		})
		if err != nil {
			fail("创建只读钱包失败", err)
		}

		privKey := readPassword("请输入要导入的私钥 (十六进制): ")

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		opts, err := l.GetImportTxOptions(ctx, privKey)
		if err != nil {
			fail("读取导入地址失败", err)
		}
		pending, err := l.CreateImportTx(to, opts)
		if err != nil {
			fail("构造清扫交易失败", err)
		}
		printUnsigned(pending.Unsigned)

		signed, err := pending.Sign()
		if err != nil {
			fail("签名失败", err)
		}
		rec, err := l.SendTx(ctx, signed)
		if err != nil {
			fail("❌ 广播失败", err)
		}

		fmt.Printf("\n✅ 导入成功!\n")
		fmt.Printf("From:   %s\n", opts.Address)
		fmt.Printf("Amount: %s\n", pending.Unsigned.Value)
		fmt.Printf("Tx URL: %s\n", l.TxURL(rec.ID))
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("pubkey", "", "钱包公钥 (PublicKey 导出的 JSON 或十六进制)")
	importCmd.Flags().String("to", "", "收款方地址或直接型 IBAN，为空时转入钱包自身")
	importCmd.Flags().String("indexer", "http://localhost:3000", "索引服务地址")
	importCmd.Flags().Int64("chain-id", 1, "Chain ID (1=Mainnet, 11155111=Sepolia)")
	importCmd.Flags().String("fee-model", "legacy", "手续费模型: legacy 或 eip1559")
	importCmd.Flags().String("token", "", "ERC-20 合约地址，为空表示原生币")
	importCmd.Flags().String("symbol", "ETH", "资产符号")
	importCmd.Flags().String("explorer", "https://etherscan.io/tx/%s", "区块浏览器交易链接模板")

	importCmd.MarkFlagRequired("pubkey")
}
