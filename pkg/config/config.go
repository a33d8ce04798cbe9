package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// WalletConfig 钱包配置。
// PrivateKey 和 Mnemonic 二选一；FunderAddress 为空表示直连 EOA 出资。
type WalletConfig struct {
	PrivateKey    string // 十六进制私钥（无 0x 前缀）
	Mnemonic      string // BIP39 助记词（与 PrivateKey 二选一）
	MnemonicIndex int    // 助记词派生索引，默认 0
	FunderAddress string // 出资账户地址（代理出资时为代理合约地址）
	SignatureType int    // 0=EOA 直连, 2=代理合约出资
}

// Config 应用配置
type Config struct {
	Wallet WalletConfig

	ChainID   int64  // 链 ID：137 主网 / 80002 测试网
	RPCURL    string // 链 RPC 节点
	ClobHost  string // 撮合服务地址
	RelayHost string // 中继服务地址（代理出资时需要）

	RequestTimeout int    // 撮合服务请求超时（秒）
	CredentialDir  string // 凭证缓存目录（为空则不落盘）

	LogLevel string // 日志级别
	LogFile  string // 日志文件路径（可选）

	DryRun bool // 纸交易模式：只构建和签名订单，不提交
}

// ConfigFile 配置文件结构（YAML 解析）
type ConfigFile struct {
	Wallet struct {
		PrivateKey    string `yaml:"private_key"`
		Mnemonic      string `yaml:"mnemonic"`
		MnemonicIndex int    `yaml:"mnemonic_index"`
		FunderAddress string `yaml:"funder_address"`
		SignatureType int    `yaml:"signature_type"`
	} `yaml:"wallet"`
	ChainID        int64  `yaml:"chain_id"`
	RPCURL         string `yaml:"rpc_url"`
	ClobHost       string `yaml:"clob_host"`
	RelayHost      string `yaml:"relay_host"`
	RequestTimeout int    `yaml:"request_timeout"`
	CredentialDir  string `yaml:"credential_dir"`
	LogLevel       string `yaml:"log_level"`
	LogFile        string `yaml:"log_file"`
	DryRun         bool   `yaml:"dry_run"`
}

var globalConfig *Config
var configFilePath string

// SetConfigPath 设置配置文件路径
func SetConfigPath(path string) {
	configFilePath = path
	globalConfig = nil
}

// Load 加载配置（优先级：环境变量 > 配置文件 > 默认值）
func Load() (*Config, error) {
	return LoadFromFile(configFilePath)
}

// LoadFromFile 从指定文件加载配置
func LoadFromFile(filePath string) (*Config, error) {
	if globalConfig != nil && configFilePath == filePath {
		return globalConfig, nil
	}

	var cf ConfigFile
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败 %s: %w", filePath, err)
		}
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("解析配置文件失败 %s: %w", filePath, err)
		}
	}

	config := &Config{
		Wallet: WalletConfig{
			PrivateKey:    getEnv("WALLET_PRIVATE_KEY", cf.Wallet.PrivateKey),
			Mnemonic:      getEnv("WALLET_MNEMONIC", cf.Wallet.Mnemonic),
			MnemonicIndex: getIntEnv("WALLET_MNEMONIC_INDEX", cf.Wallet.MnemonicIndex),
			FunderAddress: getEnv("WALLET_FUNDER_ADDRESS", cf.Wallet.FunderAddress),
			SignatureType: getIntEnv("WALLET_SIGNATURE_TYPE", cf.Wallet.SignatureType),
		},
		ChainID:        getInt64Env("CHAIN_ID", defaultInt64(cf.ChainID, 137)),
		RPCURL:         getEnv("RPC_URL", defaultStr(cf.RPCURL, "https://polygon-rpc.com")),
		ClobHost:       getEnv("CLOB_HOST", defaultStr(cf.ClobHost, "https://clob.polymarket.com")),
		RelayHost:      getEnv("RELAY_HOST", cf.RelayHost),
		RequestTimeout: getIntEnv("REQUEST_TIMEOUT", defaultInt(cf.RequestTimeout, 15)),
		CredentialDir:  getEnv("CREDENTIAL_DIR", cf.CredentialDir),
		LogLevel:       getEnv("LOG_LEVEL", defaultStr(cf.LogLevel, "info")),
		LogFile:        getEnv("LOG_FILE", cf.LogFile),
		DryRun:         getBoolEnv("DRY_RUN", cf.DryRun),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	globalConfig = config
	configFilePath = filePath
	return config, nil
}

// Validate 检查配置完整性
func (c *Config) Validate() error {
	if c.Wallet.PrivateKey == "" && c.Wallet.Mnemonic == "" {
		return fmt.Errorf("钱包未配置: 需要 private_key 或 mnemonic")
	}
	if c.Wallet.PrivateKey != "" && c.Wallet.Mnemonic != "" {
		return fmt.Errorf("private_key 和 mnemonic 只能配置一个")
	}
	if c.ChainID != 137 && c.ChainID != 80002 {
		return fmt.Errorf("不支持的链 ID: %d", c.ChainID)
	}
	if c.ClobHost == "" {
		return fmt.Errorf("clob_host 未配置")
	}
	if c.Wallet.SignatureType != 0 && c.Wallet.SignatureType != 2 {
		return fmt.Errorf("signature_type 只支持 0(EOA) 或 2(代理合约): %d", c.Wallet.SignatureType)
	}
	if c.Wallet.SignatureType == 2 {
		if c.Wallet.FunderAddress == "" {
			return fmt.Errorf("代理出资模式需要配置 funder_address")
		}
		if c.RelayHost == "" {
			return fmt.Errorf("代理出资模式需要配置 relay_host")
		}
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout 必须大于 0: %d", c.RequestTimeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

func defaultStr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func defaultInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func defaultInt64(v, fallback int64) int64 {
	if v > 0 {
		return v
	}
	return fallback
}
