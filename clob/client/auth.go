package client

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"

	"github.com/betbot/polyorder/clob/signing"
	"github.com/betbot/polyorder/clob/types"
)

// AuthConfig 认证配置
type AuthConfig struct {
	PrivateKey *ecdsa.PrivateKey
	ChainID    types.Chain
	Creds      *types.ApiKeyCreds
}

// CanL2Auth 检查是否可以进行 L2 认证
func (c *Client) CanL2Auth() error {
	if c.authConfig == nil || c.authConfig.Creds == nil {
		return types.NewPipelineError(types.ErrCredential, "credentials",
			"L2 认证不可用: API 凭证未配置", nil)
	}
	return nil
}

// CanL1Auth 检查是否可以进行 L1 认证
func (c *Client) CanL1Auth() error {
	if c.authConfig == nil || c.authConfig.PrivateKey == nil {
		return types.NewPipelineError(types.ErrSigningFailed, "credentials",
			"L1 认证不可用: 私钥未配置", nil)
	}
	return nil
}

// GetAddress 获取签名账号地址（从私钥计算）
func (c *Client) GetAddress() (common.Address, error) {
	if err := c.CanL1Auth(); err != nil {
		return common.Address{}, err
	}
	return signing.GetAddressFromPrivateKey(c.authConfig.PrivateKey), nil
}

// SetCreds 设置会话凭证（从外部缓存恢复时用）
func (c *Client) SetCreds(creds *types.ApiKeyCreds) {
	c.authConfig.Creds = creds
}

// Creds 获取当前会话凭证（可能为 nil）
func (c *Client) Creds() *types.ApiKeyCreds {
	if c.authConfig == nil {
		return nil
	}
	return c.authConfig.Creds
}
