package trade

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/polyorder/clob/client"
	"github.com/betbot/polyorder/clob/signing"
	"github.com/betbot/polyorder/clob/types"
	"github.com/betbot/polyorder/pkg/config"
	"github.com/betbot/polyorder/pkg/secretstore"
)

// Pipeline 下单管线：金额换算 → 链上授权 → 构建 → 签名 → 凭证 → 提交。
// 每一步失败都终止管线并返回带阶段标记的错误，绝不提交未授权或未签名的订单。
type Pipeline struct {
	cfg       *config.Config
	client    *client.Client
	approvals *client.ApprovalService
	wallet    *signing.Wallet
	store     *secretstore.Store
	contracts *client.ContractConfig
	chain     types.Chain
	log       *logrus.Entry
}

// PlaceOrderParams 下单参数（人类单位）
type PlaceOrderParams struct {
	TokenID    string
	Price      float64
	Size       float64
	Side       types.Side
	OrderType  types.OrderType // 为空默认 GTC
	NegRisk    bool            // neg-risk 市场走独立的交易所合约
	FeeRateBps *int
	Expiration *int64
}

// PlacementResult 下单结果
type PlacementResult struct {
	OrderID     string
	Status      string
	Salt        string
	MakerAmount string
	TakerAmount string
	DryRun      bool
}

// NewPipeline 从配置组装管线。store 可为 nil（不缓存凭证）。
func NewPipeline(cfg *config.Config, store *secretstore.Store, log *logrus.Entry) (*Pipeline, error) {
	wallet, err := buildWallet(cfg)
	if err != nil {
		return nil, err
	}

	chain := types.Chain(cfg.ChainID)
	contracts, err := client.GetContractConfig(chain)
	if err != nil {
		return nil, err
	}

	c := client.NewClientWithTimeout(cfg.ClobHost, chain, wallet.PrivateKey(), nil,
		time.Duration(cfg.RequestTimeout)*time.Second)

	funder := wallet.Address()
	if cfg.Wallet.SignatureType == int(types.SignatureTypeProxySafe) {
		funder = common.HexToAddress(cfg.Wallet.FunderAddress)
		c.SetFunder(funder.Hex(), types.SignatureTypeProxySafe)
	}

	approvals, err := buildApprovals(cfg, chain, wallet, funder, log)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:       cfg,
		client:    c,
		approvals: approvals,
		wallet:    wallet,
		store:     store,
		contracts: contracts,
		chain:     chain,
		log:       log,
	}, nil
}

func buildWallet(cfg *config.Config) (*signing.Wallet, error) {
	if cfg.Wallet.Mnemonic != "" {
		return signing.NewWalletFromMnemonic(cfg.Wallet.Mnemonic, cfg.Wallet.MnemonicIndex)
	}
	return signing.NewWalletFromHex(cfg.Wallet.PrivateKey)
}

func buildApprovals(cfg *config.Config, chain types.Chain, wallet *signing.Wallet, funder common.Address, log *logrus.Entry) (*client.ApprovalService, error) {
	if cfg.DryRun {
		// 纸交易不触链
		return nil, nil
	}
	if cfg.Wallet.SignatureType == int(types.SignatureTypeProxySafe) {
		ec, err := client.DialCaller(cfg.RPCURL)
		if err != nil {
			return nil, err
		}
		executor := client.NewRelayExecutor(cfg.RelayHost, wallet, funder)
		return client.NewApprovalService(ec, executor, funder, chain, log)
	}
	return client.DialApprovalService(cfg.RPCURL, chain, wallet, log)
}

// Client 暴露底层客户端（查询、撤单等直接用它）
func (p *Pipeline) Client() *client.Client {
	return p.client
}

// CheckAllowances 只读授权诊断（透传授权服务）
func (p *Pipeline) CheckAllowances(ctx context.Context) (*client.AllowancesResult, error) {
	if p.approvals == nil {
		return nil, errors.New("纸交易模式未连接链上节点")
	}
	return p.approvals.CheckAllowances(ctx)
}

// EnsureCredentials 确保 API 凭证可用：会话缓存 → 加密缓存 → L1 推导。
// 推导出的新凭证写回加密缓存。
func (p *Pipeline) EnsureCredentials(ctx context.Context) (*types.ApiKeyCreds, error) {
	if creds := p.client.Creds(); creds != nil {
		return creds, nil
	}

	address := p.wallet.Address().Hex()
	if p.store != nil {
		creds, found, err := p.store.LoadCreds(address)
		if err != nil {
			p.log.WithError(err).Warn("读取凭证缓存失败, 回退到 L1 推导")
		} else if found {
			p.client.SetCreds(creds)
			return creds, nil
		}
	}

	creds, err := p.client.CreateOrDeriveAPIKey(ctx, nil)
	if err != nil {
		return nil, err
	}
	if p.store != nil {
		if err := p.store.SaveCreds(address, creds); err != nil {
			p.log.WithError(err).Warn("写入凭证缓存失败")
		}
	}
	return creds, nil
}

// PlaceOrder 执行完整下单管线
func (p *Pipeline) PlaceOrder(ctx context.Context, params *PlaceOrderParams) (*PlacementResult, error) {
	log := p.log.WithFields(logrus.Fields{
		"token": params.TokenID,
		"side":  params.Side,
		"price": params.Price,
		"size":  params.Size,
	})

	// 1. 金额换算
	maker, taker, err := client.CalcOrderAmounts(params.Side, params.Price, params.Size)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"makerAmount": maker.String(),
		"takerAmount": taker.String(),
	}).Info("金额换算完成")

	// 2. 链上授权（幂等，已授权时零链上交互）
	if p.approvals != nil {
		if err := p.approvals.EnsureTradingApprovals(ctx, params.Side, maker.Value); err != nil {
			return nil, err
		}
	}

	// 3. 构建未签名订单
	builder, err := p.client.OrderBuilder()
	if err != nil {
		return nil, err
	}
	order, err := builder.BuildOrder(&types.OrderRequest{
		TokenID:    params.TokenID,
		Price:      params.Price,
		Size:       params.Size,
		Side:       params.Side,
		FeeRateBps: params.FeeRateBps,
		Expiration: params.Expiration,
	}, maker, taker)
	if err != nil {
		return nil, types.NewPipelineError(types.ErrInvalidAmount, "build", "构建订单失败", err)
	}

	// 4. EIP712 签名（neg-risk 市场用独立交易所域）
	exchange := p.contracts.Exchange
	if params.NegRisk {
		exchange = p.contracts.NegRiskExchange
	}
	sig, err := signing.SignOrder(p.wallet.PrivateKey(), p.chain, exchange, order)
	if err != nil {
		return nil, types.NewPipelineError(types.ErrSigningFailed, "signing", "订单签名失败", err)
	}
	signed := order.Attach(sig)

	if p.cfg.DryRun {
		log.WithField("salt", signed.Salt).Info("纸交易模式: 订单已构建并签名, 不提交")
		return &PlacementResult{
			Salt:        signed.Salt,
			MakerAmount: signed.MakerAmount,
			TakerAmount: signed.TakerAmount,
			DryRun:      true,
		}, nil
	}

	// 5. 凭证
	if _, err := p.EnsureCredentials(ctx); err != nil {
		return nil, err
	}

	// 6. 提交
	orderType := params.OrderType
	if orderType == "" {
		orderType = types.OrderTypeGTC
	}
	resp, err := p.client.PostOrder(ctx, signed, orderType)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"orderID": resp.OrderID,
		"status":  resp.Status,
	}).Info("订单已接受")

	return &PlacementResult{
		OrderID:     resp.OrderID,
		Status:      resp.Status,
		Salt:        signed.Salt,
		MakerAmount: signed.MakerAmount,
		TakerAmount: signed.TakerAmount,
	}, nil
}

// RequiredCollateral 返回 BUY 订单的稳定币需求（授权检查用的同一口径）
func RequiredCollateral(price, size float64) (*big.Int, error) {
	maker, _, err := client.CalcOrderAmounts(types.SideBuy, price, size)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return maker.Value, nil
}
