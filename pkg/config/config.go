package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	DB      DBConfig      `mapstructure:"db"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Indexer IndexerConfig `mapstructure:"indexer"`
	Node    NodeConfig    `mapstructure:"node"`
	Wallet  WalletConfig  `mapstructure:"wallet"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	HttpPort string `mapstructure:"http_port"`
}

type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// DSN gorm postgres 驱动使用的连接串
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	MQType   string `mapstructure:"mq_type"` // "redis", "kafka" 或 "none"
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
}

// IndexerConfig 外部索引服务 (REST)
type IndexerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// NodeConfig 可选的 JSON-RPC 节点，配置后手续费报价走节点
type NodeConfig struct {
	RpcUrl string `mapstructure:"rpc_url"`
}

type WalletConfig struct {
	Symbol             string        `mapstructure:"symbol"`
	TokenAddress       string        `mapstructure:"token_address"` // 为空表示原生币钱包
	TokenSymbol        string        `mapstructure:"token_symbol"`
	ChainID            int64         `mapstructure:"chain_id"`
	NetworkID          int64         `mapstructure:"network_id"`
	FeeModel           string        `mapstructure:"fee_model"` // "legacy" 或 "eip1559"
	GasLimit           uint64        `mapstructure:"gas_limit"` // 0 表示按资产类型取默认值
	MinConfirmations   int64         `mapstructure:"min_confirmations"`
	ReplaceByFeeFactor float64       `mapstructure:"replace_by_fee_factor"`
	DerivationPath     string        `mapstructure:"derivation_path"`
	PublicKey          string        `mapstructure:"public_key"` // 只读钱包
	KeystorePath       string        `mapstructure:"keystore_path"`
	Password           string        `mapstructure:"password"` // 通常通过环境变量 WALLET_PASSWORD 传入
	ExplorerTxURL      string        `mapstructure:"explorer_tx_url"`
	FeeRefreshInterval time.Duration `mapstructure:"fee_refresh_interval"`
}

// IsToken 是否为代币钱包
func (w WalletConfig) IsToken() bool {
	return w.TokenAddress != ""
}

var Global Config

// Init 加载全局配置，配置文件存在但无法解析时直接退出
func Init() {
	cfg, err := Load(".", "./config")
	if err != nil {
		log.Fatalf("Fatal error config file: %s \n", err)
	}
	Global = *cfg
	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

// Load 从给定目录查找 config.yaml，环境变量优先
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		log.Printf("Warning: Config file not found, using defaults and environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "")
	v.SetDefault("app.http_port", "8080")

	v.SetDefault("db.enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "wallet_user")
	v.SetDefault("db.password", "wallet_password")
	v.SetDefault("db.name", "wallet_db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.mq_type", "none")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", "wallet-events")

	v.SetDefault("indexer.base_url", "http://localhost:3000")
	v.SetDefault("indexer.timeout", 30*time.Second)

	v.SetDefault("wallet.symbol", "ETH")
	v.SetDefault("wallet.chain_id", 1)
	v.SetDefault("wallet.network_id", 1)
	v.SetDefault("wallet.fee_model", "legacy")
	v.SetDefault("wallet.gas_limit", 0)
	v.SetDefault("wallet.min_confirmations", 5)
	v.SetDefault("wallet.replace_by_fee_factor", 1.2)
	v.SetDefault("wallet.derivation_path", "m/44'/60'/0'")
	v.SetDefault("wallet.keystore_path", "wallet.json")
	v.SetDefault("wallet.explorer_tx_url", "https://etherscan.io/tx/%s")
	v.SetDefault("wallet.fee_refresh_interval", 30*time.Second)
}
