package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"eth-wallet-core/internal/event"
	"eth-wallet-core/internal/service/mq"
	"eth-wallet-core/pkg/config"
	"eth-wallet-core/pkg/database"
	"eth-wallet-core/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// eventsCmd 订阅 wallet-server 发出的交易事件并打印
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "订阅钱包交易事件",
	Long:  `按 config.yaml 中的 redis.mq_type 连接 Redis Streams 或 Kafka，打印 wallet_events_tx_sent 事件。`,
	Run: func(cmd *cobra.Command, args []string) {
		consumerName, _ := cmd.Flags().GetString("name")

		config.Init()
		cfg := config.Global
		logger.Init(cfg.App.Env, cfg.App.LogLevel)
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var consumer mq.Consumer
		switch cfg.Redis.MQType {
		case "kafka":
			consumer = mq.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, logger.Named("kafka"))
		case "redis":
			rdb, err := database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				fail("Redis 连接失败", err)
			}
			defer rdb.Close()
			consumer = mq.NewRedisConsumer(rdb, cfg.Kafka.GroupID, consumerName, logger.Named("redis-stream"))
		default:
			fmt.Println("未配置消息队列 (redis.mq_type)")
			os.Exit(1)
		}
		defer consumer.Close()

		fmt.Printf("正在订阅 %s ...\n", event.TopicTxSent)
		err := consumer.Subscribe(ctx, event.TopicTxSent, func(msg *mq.Message) error {
			var ev event.TxSentEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				logger.Warn("事件解析失败", zap.String("key", msg.Key), zap.Error(err))
				return nil
			}
			fmt.Printf("[%s] %s %s -> %s amount=%s nonce=%d %s\n",
				ev.SentAt.Format("2006-01-02 15:04:05"), ev.TxID, ev.From, ev.To, ev.Amount, ev.Nonce, ev.ExplorerURL)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			fail("订阅失败", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().String("name", "wallet-cli", "消费者名称 (Redis Streams)")
}
