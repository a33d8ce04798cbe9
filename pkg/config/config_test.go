package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const validYAML = `
wallet:
  private_key: "0000000000000000000000000000000000000000000000000000000000000001"
chain_id: 137
clob_host: "https://clob.polymarket.com"
rpc_url: "https://polygon-rpc.com"
log_level: "debug"
`

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, int64(137), cfg.ChainID)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 15, cfg.RequestTimeout) // 默认值
	assert.Equal(t, 0, cfg.Wallet.SignatureType)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("REQUEST_TIMEOUT", "30")

	path := writeConfig(t, validYAML)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 30, cfg.RequestTimeout)
}

func TestValidate_MissingWallet(t *testing.T) {
	path := writeConfig(t, `
chain_id: 137
clob_host: "https://clob.polymarket.com"
`)
	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "钱包未配置")
}

func TestValidate_BothKeySources(t *testing.T) {
	cfg := &Config{
		Wallet: WalletConfig{
			PrivateKey: "aa",
			Mnemonic:   "test test test",
		},
		ChainID:        137,
		ClobHost:       "https://clob.polymarket.com",
		RequestTimeout: 15,
	}
	assert.Error(t, cfg.Validate())
}

func TestValidate_BadChain(t *testing.T) {
	cfg := &Config{
		Wallet:         WalletConfig{PrivateKey: "aa"},
		ChainID:        1,
		ClobHost:       "https://clob.polymarket.com",
		RequestTimeout: 15,
	}
	assert.Error(t, cfg.Validate())
}

func TestValidate_ProxyFundingRequiresFunderAndRelay(t *testing.T) {
	cfg := &Config{
		Wallet: WalletConfig{
			PrivateKey:    "aa",
			SignatureType: 2,
		},
		ChainID:        137,
		ClobHost:       "https://clob.polymarket.com",
		RequestTimeout: 15,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "funder_address")

	cfg.Wallet.FunderAddress = "0x2222222222222222222222222222222222222222"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay_host")

	cfg.RelayHost = "https://relayer.example.com"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_BadSignatureType(t *testing.T) {
	cfg := &Config{
		Wallet:         WalletConfig{PrivateKey: "aa", SignatureType: 1},
		ChainID:        137,
		ClobHost:       "https://clob.polymarket.com",
		RequestTimeout: 15,
	}
	assert.Error(t, cfg.Validate())
}
