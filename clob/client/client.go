package client

import (
	"crypto/ecdsa"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/betbot/polyorder/clob/types"
	"github.com/betbot/polyorder/pkg/ratelimit"
)

// DefaultRequestTimeout 默认请求超时
const DefaultRequestTimeout = 15 * time.Second

// Client CLOB 客户端。每个会话一个实例：
// 凭证、nonce 源、速率限制器都挂在客户端上共享。
type Client struct {
	host          string
	chainID       types.Chain
	authConfig    *AuthConfig
	transport     *transport
	rateLimiter   *ratelimit.Manager
	nonces        *NonceSource
	funderAddress string
	signatureType types.SignatureType
}

// NewClient 创建新的 CLOB 客户端。
// creds 可为 nil（未推导凭证时只能走 L1 认证方法）。
func NewClient(
	host string,
	chainID types.Chain,
	privateKey *ecdsa.PrivateKey,
	creds *types.ApiKeyCreds,
) *Client {
	return NewClientWithTimeout(host, chainID, privateKey, creds, DefaultRequestTimeout)
}

// NewClientWithTimeout 创建带自定义请求超时的客户端
func NewClientWithTimeout(
	host string,
	chainID types.Chain,
	privateKey *ecdsa.PrivateKey,
	creds *types.ApiKeyCreds,
	timeout time.Duration,
) *Client {
	host = strings.TrimSuffix(host, "/")

	c := &Client{
		host:        host,
		chainID:     chainID,
		authConfig:  &AuthConfig{PrivateKey: privateKey, ChainID: chainID, Creds: creds},
		transport:   newTransport(host, timeout),
		rateLimiter: ratelimit.NewManager(),
		nonces:      NewNonceSource(),
	}
	if privateKey != nil {
		c.funderAddress = crypto.PubkeyToAddress(privateKey.PublicKey).Hex()
	}
	c.signatureType = types.SignatureTypeEOA
	return c
}

// SetFunder 配置智能账户代理出资：maker 为代理地址，EOA 只负责签名
func (c *Client) SetFunder(funderAddress string, signatureType types.SignatureType) {
	if funderAddress != "" {
		c.funderAddress = funderAddress
	}
	c.signatureType = signatureType
}

// GetHost 获取主机地址
func (c *Client) GetHost() string {
	return c.host
}

// GetChainID 获取链 ID
func (c *Client) GetChainID() types.Chain {
	return c.chainID
}

// FunderAddress 获取出资账户地址（订单的 maker）
func (c *Client) FunderAddress() string {
	return c.funderAddress
}

// SignatureType 获取签名托管模型
func (c *Client) SignatureType() types.SignatureType {
	return c.signatureType
}

// OrderBuilder 为当前会话创建订单构建器（共享 nonce 源）
func (c *Client) OrderBuilder() (*OrderBuilder, error) {
	addr, err := c.GetAddress()
	if err != nil {
		return nil, err
	}
	return NewOrderBuilder(c.funderAddress, addr.Hex(), c.signatureType, c.nonces), nil
}
