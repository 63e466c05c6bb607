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
	"eth-wallet-core/pkg/wallet/types"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "广播已签名的交易 (Online)",
	Long:  `读取已签名的交易文件 (Signed Tx)，通过索引服务或 JSON-RPC 节点广播。`,
	Run: func(cmd *cobra.Command, args []string) {
		inputFile, _ := cmd.Flags().GetString("input")
		rpcURL, _ := cmd.Flags().GetString("rpc")
		indexerURL, _ := cmd.Flags().GetString("indexer")
		explorer, _ := cmd.Flags().GetString("explorer")

		// 1. 读取 Signed Tx
		data, err := os.ReadFile(inputFile)
		if err != nil {
			fail("读取文件失败", err)
		}
		var env types.SignedTransaction
		if err := json.Unmarshal(data, &env); err != nil {
			fail("解析文件失败", err)
		}
		signed, err := ledger.DecodeSigned(&env)
		if err != nil {
			fail("反序列化交易失败", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		// 2. 广播
		fmt.Printf("正在广播交易 Hash: %s ...\n", signed.Hash())
		txID := signed.Hash()
		if rpcURL != "" {
			client, err := ethclient.DialContext(ctx, rpcURL)
			if err != nil {
				fail("连接失败", err)
			}
			defer client.Close()
			if err := client.SendTransaction(ctx, signed.Tx); err != nil {
				fail("❌ 广播失败", err)
			}
		} else {
			raw, err := signed.Raw()
			if err != nil {
				fail("编码交易失败", err)
			}
			api := indexer.NewClient(indexerURL, &http.Client{Timeout: 30 * time.Second}, zap.NewNop())
			if txID, err = api.SubmitRawTransaction(ctx, raw); err != nil {
				fail("❌ 广播失败", err)
			}
		}

		fmt.Printf("✅ 广播成功!\n")
		fmt.Printf("Tx URL: %s\n", fmt.Sprintf(explorer, txID))
	},
}

func init() {
	rootCmd.AddCommand(broadcastCmd)
	broadcastCmd.Flags().StringP("input", "i", "signed.json", "已签名的交易文件")
	broadcastCmd.Flags().String("indexer", "http://localhost:3000", "索引服务地址")
	broadcastCmd.Flags().String("rpc", "", "JSON-RPC 节点地址，设置后绕过索引服务直接广播")
	broadcastCmd.Flags().String("explorer", "https://etherscan.io/tx/%s", "区块浏览器交易链接模板")
}
