package client

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/betbot/polyorder/clob/signing"
)

// TxExecutor 执行一笔链上写操作并等到终态。
// 直连 EOA 用 ChainExecutor，智能账户代理出资用 RelayExecutor。
type TxExecutor interface {
	Execute(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error)
}

// chainBackend ChainExecutor 依赖的节点能力，*ethclient.Client 天然满足
type chainBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// ChainExecutor 用本地私钥直接签名并发送交易
type ChainExecutor struct {
	backend chainBackend
	signer  *signing.Wallet
	chainID *big.Int

	// 回执轮询间隔与等待上限
	pollInterval time.Duration
	waitTimeout  time.Duration
}

// NewChainExecutor 创建直连执行器
func NewChainExecutor(backend chainBackend, wallet *signing.Wallet, chainID *big.Int) *ChainExecutor {
	return &ChainExecutor{
		backend:      backend,
		signer:       wallet,
		chainID:      chainID,
		pollInterval: 2 * time.Second,
		waitTimeout:  2 * time.Minute,
	}
}

// Execute 签名、发送交易并等待回执。
// 回执 status 为 0（revert）视为失败，和等待超时一样返回错误。
func (e *ChainExecutor) Execute(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	from := e.signer.Address()

	nonce, err := e.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "获取 nonce 失败")
	}
	gasPrice, err := e.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "获取 gas 价格失败")
	}
	gasLimit, err := e.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Data:  data,
		Value: value,
	})
	if err != nil {
		// 部分节点对 approve 类调用的估算不稳定，给保守兜底
		gasLimit = 120000
	}

	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(e.chainID), e.signer.PrivateKey())
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "签名交易失败")
	}
	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, errors.Wrap(err, "发送交易失败")
	}

	receipt, err := e.waitMined(ctx, signed.Hash())
	if err != nil {
		return signed.Hash(), err
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return signed.Hash(), errors.Errorf("交易回滚: %s", signed.Hash().Hex())
	}
	return signed.Hash(), nil
}

func (e *ChainExecutor) waitMined(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	deadline := time.Now().Add(e.waitTimeout)
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := e.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if time.Now().After(deadline) {
			return nil, errors.Errorf("等待交易回执超时: %s", txHash.Hex())
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
