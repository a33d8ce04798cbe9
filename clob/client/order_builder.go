package client

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/betbot/polyorder/clob/types"
)

// NonceSource 单调递增的订单 nonce 源，按 (maker, signer) 维度持有一个。
// 并发提交共用同一个源时在这里串行化，避免 nonce 碰撞。
// 用墙钟毫秒做种子保证跨进程重启仍然唯一，之后严格递增。
type NonceSource struct {
	mu   sync.Mutex
	last int64
}

// NewNonceSource 创建 nonce 源
func NewNonceSource() *NonceSource {
	return &NonceSource{last: time.Now().UnixMilli()}
}

// Next 返回下一个 nonce
func (n *NonceSource) Next() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := time.Now().UnixMilli()
	if now <= n.last {
		now = n.last + 1
	}
	n.last = now
	return now
}

// NewOrderSalt 生成订单 salt：完整 128 位随机数，碰撞概率可忽略
func NewOrderSalt() *big.Int {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand 不可用时没有安全的 salt 来源
		panic(err)
	}
	return new(big.Int).SetBytes(buf[:])
}

// OrderBuilder 订单构建器：纯组装，不做任何链或网络调用
type OrderBuilder struct {
	funderAddress string
	signerAddress string
	signatureType types.SignatureType
	nonces        *NonceSource
	newSalt       func() *big.Int
}

// NewOrderBuilder 创建订单构建器。
// funderAddress 为出资账户（maker）；直连私钥账户时与 signerAddress 相同，
// 智能账户代理出资时为代理合约地址。
func NewOrderBuilder(funderAddress, signerAddress string, signatureType types.SignatureType, nonces *NonceSource) *OrderBuilder {
	return &OrderBuilder{
		funderAddress: funderAddress,
		signerAddress: signerAddress,
		signatureType: signatureType,
		nonces:        nonces,
		newSalt:       NewOrderSalt,
	}
}

// BuildOrder 组装未签名订单记录
func (ob *OrderBuilder) BuildOrder(req *types.OrderRequest, maker, taker types.TokenAmount) (*types.Order, error) {
	tokenID, ok := new(big.Int).SetString(req.TokenID, 10)
	if !ok {
		return nil, fmt.Errorf("无效的 tokenID: %s", req.TokenID)
	}

	takerAddr := types.ZeroAddress
	if req.Taker != nil && *req.Taker != "" {
		takerAddr = *req.Taker
	}

	feeRateBps := big.NewInt(0)
	if req.FeeRateBps != nil {
		if *req.FeeRateBps < 0 || *req.FeeRateBps > 10000 {
			return nil, fmt.Errorf("feeRateBps 超出范围: %d", *req.FeeRateBps)
		}
		feeRateBps = big.NewInt(int64(*req.FeeRateBps))
	}

	expiration := big.NewInt(0)
	if req.Expiration != nil {
		expiration = big.NewInt(*req.Expiration)
	}

	return &types.Order{
		Salt:          ob.newSalt(),
		Maker:         ob.funderAddress,
		Signer:        ob.signerAddress,
		Taker:         takerAddr,
		TokenID:       tokenID,
		MakerAmount:   maker,
		TakerAmount:   taker,
		Expiration:    expiration,
		Nonce:         big.NewInt(ob.nonces.Next()),
		FeeRateBps:    feeRateBps,
		Side:          req.Side,
		SignatureType: ob.signatureType,
	}, nil
}
