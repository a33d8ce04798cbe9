package client

import (
	"context"
	"net/http"

	"github.com/betbot/polyorder/clob/signing"
	"github.com/betbot/polyorder/clob/types"
)

// CreateOrDeriveAPIKey 创建或推导 API 密钥（L1 挑战-响应）。
// 幂等：同一签名身份重复调用返回同一组凭证 —— 先尝试推导现有密钥，
// 服务端返回 400 表示还没有密钥，再创建新的。
func (c *Client) CreateOrDeriveAPIKey(ctx context.Context, nonce *int64) (*types.ApiKeyCreds, error) {
	if err := c.CanL1Auth(); err != nil {
		return nil, err
	}

	var n int64 = 0
	if nonce != nil {
		n = *nonce
	}

	headers, err := signing.CreateL1Headers(
		c.authConfig.PrivateKey,
		c.authConfig.ChainID,
		&n,
		nil,
	)
	if err != nil {
		return nil, types.NewPipelineError(types.ErrCredential, "credentials",
			"创建 L1 认证头失败", err)
	}

	var raw types.ApiKeyRaw
	err = c.transport.get(ctx, EndpointDeriveAPIKey, headers.Map(), nil, &raw)
	if err == nil {
		return c.adoptCreds(&raw), nil
	}
	if isTimeout(err) {
		return nil, types.NewPipelineError(types.ErrCredential, "credentials",
			"推导 API 密钥超时", err)
	}
	if statusOf(err) != http.StatusBadRequest {
		return nil, types.NewPipelineError(types.ErrCredential, "credentials",
			"推导 API 密钥失败", err)
	}

	// 400: 该身份还没有密钥，创建新的
	if err := c.transport.postJSON(ctx, EndpointCreateAPIKey, headers.Map(), "{}", &raw); err != nil {
		return nil, types.NewPipelineError(types.ErrCredential, "credentials",
			"创建 API 密钥失败", err)
	}
	return c.adoptCreds(&raw), nil
}

// EnsureCreds 确保会话已有凭证：已配置则直接返回，否则推导并缓存
func (c *Client) EnsureCreds(ctx context.Context) (*types.ApiKeyCreds, error) {
	if c.authConfig != nil && c.authConfig.Creds != nil {
		return c.authConfig.Creds, nil
	}
	return c.CreateOrDeriveAPIKey(ctx, nil)
}

// adoptCreds 把服务端返回的凭证缓存到会话
func (c *Client) adoptCreds(raw *types.ApiKeyRaw) *types.ApiKeyCreds {
	creds := &types.ApiKeyCreds{
		Key:        raw.ApiKey,
		Secret:     raw.Secret,
		Passphrase: raw.Passphrase,
	}
	c.authConfig.Creds = creds
	return creds
}
