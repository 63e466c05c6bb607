package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"eth-wallet-core/internal/indexer"
	"eth-wallet-core/internal/service/ledger"
	"eth-wallet-core/pkg/keystore"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// exportCmd Offline 端：解密 Keystore，按派生路径导出私钥 CSV
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "导出私钥 (Offline)",
	Long:  `使用 Keystore 中的种子派生签名私钥，以 "address,privatekey" CSV 格式输出。请勿在联网环境使用。`,
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("path")
		outputFile, _ := cmd.Flags().GetString("output")

		encryptedKey, err := keystore.LoadFromFile(keystoreFile)
		if err != nil {
			fail("加载 Keystore 失败", err)
		}
		seedHex, err := keystore.DecryptSeed(encryptedKey, readPassword("请输入 Keystore 密码: "))
		if err != nil {
			fail("解密失败 (密码错误?)", err)
		}

		// 只做本地派生，索引服务客户端不会发出请求
		l, err := ledger.New(ledger.Options{
			Seed:           seedHex,
			DerivationPath: path,
			API:            indexer.NewClient("http://localhost", &http.Client{Timeout: time.Second}, zap.NewNop()),
		})
		if err != nil {
			fail("派生私钥失败", err)
		}
		csv, err := l.ExportPrivateKeys()
		if err != nil {
			fail("导出失败", err)
		}

		if outputFile == "" {
			fmt.Println(csv)
			return
		}
		if err := os.WriteFile(outputFile, []byte(csv+"\n"), 0600); err != nil {
			fail("保存失败", err)
		}
		fmt.Printf("✅ 已导出到: %s\n", outputFile)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("path", ledger.DefaultDerivationPath, "派生路径")
	exportCmd.Flags().StringP("output", "o", "", "输出文件，为空时打印到终端")
}
