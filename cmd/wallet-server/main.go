package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"eth-wallet-core/internal/handler"
	"eth-wallet-core/internal/indexer"
	"eth-wallet-core/internal/model"
	"eth-wallet-core/internal/server"
	"eth-wallet-core/internal/service"
	"eth-wallet-core/internal/service/ledger"
	"eth-wallet-core/internal/service/mq"
	"eth-wallet-core/internal/service/wallet"
	"eth-wallet-core/pkg/cache"
	"eth-wallet-core/pkg/config"
	"eth-wallet-core/pkg/database"
	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/keystore"
	"eth-wallet-core/pkg/logger"
	"eth-wallet-core/pkg/monitor"
	"eth-wallet-core/pkg/utils/lock"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 0. 配置与日志
	config.Init()
	cfg := config.Global
	logger.Init(cfg.App.Env, cfg.App.LogLevel)
	defer logger.Sync()

	// 1. 指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitor.NewMetrics(registry)

	ctx := context.Background()

	// 2. 存储 (可选)
	var db *gorm.DB
	if cfg.DB.Enabled {
		var err error
		db, err = database.ConnectPostgres(cfg.DB.DSN(), cfg.App.Env == "development")
		if err != nil {
			logger.Fatal("数据库连接失败", zap.Error(err))
		}
		if cfg.App.Env == "development" {
			logger.Info("开发环境: GORM AutoMigrate")
			if err := db.AutoMigrate(model.AllModels()...); err != nil {
				logger.Fatal("数据库自动迁移失败", zap.Error(err))
			}
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		var err error
		rdb, err = database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Redis 连接失败", zap.Error(err))
		}
	}

	// 3. 索引服务客户端，配置节点时手续费走节点
	var indexerOpts []indexer.Option
	indexerOpts = append(indexerOpts, indexer.WithMetrics(metrics))
	if cfg.Node.RpcUrl != "" {
		src, err := indexer.DialNodeFeeSource(ctx, cfg.Node.RpcUrl)
		if err != nil {
			logger.Fatal("节点连接失败", zap.Error(err))
		}
		indexerOpts = append(indexerOpts, indexer.WithFeeSource(src))
	}
	api := indexer.NewClient(cfg.Indexer.BaseURL, &http.Client{Timeout: cfg.Indexer.Timeout}, logger.Named("indexer"), indexerOpts...)

	// 4. 缓存
	var balanceCache cache.Cache = cache.NewMemoryCache(24*time.Hour, 10*time.Minute)
	if rdb != nil {
		balanceCache = cache.NewMultiLevelCache(balanceCache, cache.NewRedisCache(rdb, "wallet:"))
	}

	// 5. 账本
	opts, err := ledgerOptions(cfg.Wallet)
	if err != nil {
		logger.Fatal("钱包配置无效", zap.Error(err))
	}
	opts.API = api
	opts.Cache = balanceCache
	opts.Metrics = metrics
	opts.Logger = logger.Named("ledger")

	l, err := ledger.New(opts)
	if err != nil {
		logger.Fatal("初始化钱包失败", zap.Error(err))
	}
	if db != nil && cfg.Wallet.Password != "" {
		l = restoreLedger(ctx, db, l, opts, cfg.Wallet.Password)
	}
	logger.Info("钱包已加载",
		zap.String("address", l.Address()),
		zap.String("asset", l.Asset().Key()),
		zap.Bool("locked", l.IsLocked()))

	// 6. 消息队列与锁
	producer := newProducer(cfg, rdb)
	var locker lock.DistributedLock = lock.NewLocalLock()
	if rdb != nil {
		locker = lock.NewRedisLock(rdb)
	}

	walletSvc := wallet.NewService(l, wallet.Deps{
		DB:               db,
		Producer:         producer,
		Locker:           locker,
		Metrics:          metrics,
		Logger:           logger.Named("wallet"),
		SnapshotPassword: cfg.Wallet.Password,
	})

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Indexer.Timeout)
	if _, err := walletSvc.Refresh(loadCtx); err != nil {
		logger.Warn("首次加载钱包失败，稍后可通过 /wallet/refresh 重试", zap.Error(err))
	}
	cancel()

	// 7. 定时刷新手续费报价
	cronSvc := service.NewCronService(walletSvc, locker, cfg.Wallet.FeeRefreshInterval, l.Address())
	if err := cronSvc.Start(); err != nil {
		logger.Fatal("定时任务启动失败", zap.Error(err))
	}

	// 8. Outbox 中继
	relayCtx, stopRelay := context.WithCancel(ctx)
	if db != nil {
		relay := service.NewRelayService(db, producer, metrics, logger.Named("relay"))
		go relay.Start(relayCtx)
	}

	// 9. HTTP
	router := server.NewHTTPRouter(handler.NewWalletHandler(walletSvc), metrics, registry)
	app := server.New(server.Config{HttpPort: cfg.App.HttpPort}, router)

	app.OnShutdown(func() {
		if db == nil {
			return
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	app.OnShutdown(func() {
		if rdb != nil {
			_ = rdb.Close()
		}
	})
	app.OnShutdown(func() {
		if c, ok := producer.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	})
	app.OnShutdown(stopRelay)
	app.OnShutdown(cronSvc.Stop)

	app.Run()
	logger.Info("系统已退出")
}

// ledgerOptions 读取钱包配置；优先使用 keystore 中的种子，否则按公钥建只读钱包
func ledgerOptions(w config.WalletConfig) (ledger.Options, error) {
	kind, err := fee.ParseKind(w.FeeModel)
	if err != nil {
		return ledger.Options{}, err
	}

	asset := types.NativeAsset(w.Symbol)
	if w.IsToken() {
		asset = types.TokenAsset(w.TokenSymbol, w.TokenAddress)
	}

	opts := ledger.Options{
		Asset:              asset,
		PublicKey:          w.PublicKey,
		DerivationPath:     w.DerivationPath,
		ChainID:            w.ChainID,
		NetworkID:          w.NetworkID,
		FeeKind:            kind,
		GasLimit:           w.GasLimit,
		MinConfirmations:   w.MinConfirmations,
		ReplaceByFeeFactor: w.ReplaceByFeeFactor,
		ExplorerTxURL:      w.ExplorerTxURL,
	}
	if w.PublicKey != "" {
		return opts, nil
	}

	ks, err := keystore.LoadFromFile(w.KeystorePath)
	if err != nil {
		return opts, err
	}
	seed, err := keystore.DecryptSeed(ks, w.Password)
	if err != nil {
		return opts, err
	}
	opts.Seed = seed
	return opts, nil
}

// restoreLedger 用数据库快照恢复余额和 nonce，快照缺失或损坏时沿用新建的账本
func restoreLedger(ctx context.Context, db *gorm.DB, fresh *ledger.Ledger, opts ledger.Options, password string) *ledger.Ledger {
	restored, err := wallet.RestoreSnapshot(ctx, db, fresh.Address(), fresh.Asset(), password, opts)
	if err != nil {
		if !errors.Is(err, wallet.ErrNoSnapshot) {
			logger.Warn("恢复钱包快照失败", zap.Error(err))
		}
		return fresh
	}
	if restored.IsLocked() && opts.Seed != "" {
		if err := restored.Unlock(opts.Seed); err != nil {
			logger.Warn("快照解锁失败", zap.Error(err))
			return fresh
		}
	}
	logger.Info("已从快照恢复钱包状态")
	return restored
}

func newProducer(cfg config.Config, rdb *redis.Client) mq.Producer {
	switch cfg.Redis.MQType {
	case "kafka":
		logger.Info("使用 Kafka 作为消息队列...")
		return mq.NewKafkaProducer(cfg.Kafka.Brokers, logger.Named("kafka"))
	case "redis":
		if rdb == nil {
			logger.Fatal("mq_type=redis 需要启用 redis")
		}
		logger.Info("使用 Redis Streams 作为消息队列...")
		return mq.NewRedisProducer(rdb, 10000, logger.Named("redis-stream"))
	default:
		logger.Info("未配置消息队列，事件不会外发")
		return mq.NopProducer{}
	}
}
