package configloader

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultContractAddress is the deployed storage contract on Sepolia.
const DefaultContractAddress = "0xcf73DDcd0b4a7a46e1945CDdFB7a4CA37C6e6e82"

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
	ABIFile      string `yaml:"abiFile"` // served at /abi.json
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level       string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	Development bool   `yaml:"development"`
}

// NetworkConfig selects the target network and optionally overrides parts of it.
// An identifier that is not a known network needs at least chainID, name and rpcURLs.
type NetworkConfig struct {
	Identifier       string   `yaml:"identifier"`
	ChainID          uint64   `yaml:"chainID"`
	Name             string   `yaml:"name"`
	CurrencyName     string   `yaml:"currencyName"`
	CurrencySymbol   string   `yaml:"currencySymbol"`
	CurrencyDecimals int32    `yaml:"currencyDecimals"`
	RPCURLs          []string `yaml:"rpcURLs"`
	BlockExplorerURL string   `yaml:"blockExplorerURL"`
}

// ContractConfig describes the storage contract and where its ABI lives.
type ContractConfig struct {
	Address           string `yaml:"address"`
	ABISource         string `yaml:"abiSource"` // http(s) URL or file path
	ABITimeoutMillis  int64  `yaml:"abiTimeoutMillis"`
	CallTimeoutMillis int64  `yaml:"callTimeoutMillis"`
}

// WalletConfig holds the wallet bridge endpoint. An empty URL means no wallet is present.
type WalletConfig struct {
	URL                string `yaml:"url"`
	DialTimeoutMillis  int64  `yaml:"dialTimeoutMillis"`
	PollIntervalMillis int64  `yaml:"pollIntervalMillis"`
	RateLimit          int    `yaml:"rateLimit"`
	BurstLimit         int    `yaml:"burstLimit"`
}

// RpcClientConfig holds configuration for the read-only RPC clients.
type RpcClientConfig struct {
	ConnectionTimeoutMs int64 `yaml:"connectionTimeoutMs"`
	DefaultTimeoutMs    int64 `yaml:"defaultTimeoutMs"`
}

// EventsConfig controls how ValueChanged events are followed.
type EventsConfig struct {
	PollIntervalMillis int64 `yaml:"pollIntervalMillis"`
	ReconnectDelayMs   int64 `yaml:"reconnectDelayMs"`
}

// TxStoreConfig holds configuration for the transaction status store.
type TxStoreConfig struct {
	TTLMinutes             int `yaml:"ttlMinutes"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
	MaxNotices             int `yaml:"maxNotices"`
}

// SwaggerConfig holds configuration for Swagger UI.
type SwaggerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SpecFile string `yaml:"specFile"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Network   NetworkConfig   `yaml:"network"`
	Contract  ContractConfig  `yaml:"contract"`
	Wallet    WalletConfig    `yaml:"wallet"`
	RpcClient RpcClientConfig `yaml:"rpcClient"`
	Events    EventsConfig    `yaml:"events"`
	TxStore   TxStoreConfig   `yaml:"txStore"`
	Swagger   SwaggerConfig   `yaml:"swagger"`
}

// Load reads the YAML configuration file from the given path and unmarshals it.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if !strings.HasPrefix(cfg.Contract.Address, "0x") || len(cfg.Contract.Address) != 42 {
		return nil, fmt.Errorf("contract.address %q is not a 20-byte hex address", cfg.Contract.Address)
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

// ApplyDefaults fills every unset field with its default value.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
		logrus.Infof("Server.Port not set, defaulting to %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout <= 0 {
		// confirmation waits run inside /set requests
		cfg.Server.WriteTimeout = 300
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Server.ABIFile == "" {
		cfg.Server.ABIFile = "web/abi.json"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Network.Identifier == "" {
		cfg.Network.Identifier = "sepolia"
		logrus.Infof("Network.Identifier not set, defaulting to %s", cfg.Network.Identifier)
	}

	if cfg.Contract.Address == "" {
		cfg.Contract.Address = DefaultContractAddress
		logrus.Infof("Contract.Address not set, defaulting to %s", cfg.Contract.Address)
	}
	if cfg.Contract.ABISource == "" {
		cfg.Contract.ABISource = fmt.Sprintf("http://127.0.0.1:%s/abi.json", cfg.Server.Port)
		logrus.Infof("Contract.ABISource not set, defaulting to %s", cfg.Contract.ABISource)
	}
	if cfg.Contract.ABITimeoutMillis <= 0 {
		cfg.Contract.ABITimeoutMillis = 5000
	}
	if cfg.Contract.CallTimeoutMillis <= 0 {
		cfg.Contract.CallTimeoutMillis = 10000
	}

	if cfg.Wallet.DialTimeoutMillis <= 0 {
		cfg.Wallet.DialTimeoutMillis = 5000
	}
	if cfg.Wallet.PollIntervalMillis <= 0 {
		cfg.Wallet.PollIntervalMillis = 1000
	}
	if cfg.Wallet.RateLimit <= 0 {
		cfg.Wallet.RateLimit = 20
	}
	if cfg.Wallet.BurstLimit <= 0 {
		cfg.Wallet.BurstLimit = 5
	}

	if cfg.RpcClient.ConnectionTimeoutMs <= 0 {
		cfg.RpcClient.ConnectionTimeoutMs = 10000
	}
	if cfg.RpcClient.DefaultTimeoutMs <= 0 {
		cfg.RpcClient.DefaultTimeoutMs = 10000
	}

	if cfg.Events.PollIntervalMillis <= 0 {
		cfg.Events.PollIntervalMillis = 4000
	}
	if cfg.Events.ReconnectDelayMs <= 0 {
		cfg.Events.ReconnectDelayMs = 2000
	}

	if cfg.TxStore.TTLMinutes <= 0 {
		cfg.TxStore.TTLMinutes = 60
		logrus.Infof("TxStore.TTLMinutes not set, defaulting to %d minutes", cfg.TxStore.TTLMinutes)
	}
	if cfg.TxStore.CleanupIntervalMinutes <= 0 {
		cfg.TxStore.CleanupIntervalMinutes = 10
	}
	if cfg.TxStore.MaxNotices <= 0 {
		cfg.TxStore.MaxNotices = 50
	}

	if cfg.Swagger.SpecFile == "" {
		cfg.Swagger.SpecFile = "./docs/swagger.yaml"
	}
}
