package client

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/polyorder/clob/signing"
	"github.com/betbot/polyorder/clob/types"
)

// ApprovalService 确保下单前链上授权就位：
// - BUY 需要稳定币对各交易所合约的 ERC20 allowance
// - SELL 需要条件代币对各交易所合约的 ERC1155 operator approval
// 读通过 caller，写通过 executor，两者都可注入假实现做测试。
type ApprovalService struct {
	caller   ethereum.ContractCaller
	executor TxExecutor
	owner    common.Address
	log      *logrus.Entry

	collateral        common.Address
	conditionalTokens common.Address
	spenders          []namedAddress
	operators         []namedAddress

	erc20ABI   abi.ABI
	erc1155ABI abi.ABI
}

type namedAddress struct {
	Name    string
	Address common.Address
}

func toNamedAddresses(contracts []NamedContract) []namedAddress {
	out := make([]namedAddress, len(contracts))
	for i, c := range contracts {
		out[i] = namedAddress{Name: c.Name, Address: common.HexToAddress(c.Address)}
	}
	return out
}

// AllowanceInfo 单个合约的授权状态
type AllowanceInfo struct {
	Contract  string `json:"contract"`
	Address   string `json:"address"`
	Approved  bool   `json:"approved"`
	Allowance string `json:"allowance,omitempty"`
}

// AllowancesResult 授权诊断结果
type AllowancesResult struct {
	Wallet            string          `json:"wallet"`
	CollateralBalance string          `json:"collateralBalance"`
	Erc20Allowances   []AllowanceInfo `json:"erc20Allowances"`
	Erc1155Approvals  []AllowanceInfo `json:"erc1155Approvals"`
	TradingReady      bool            `json:"tradingReady"`
	Issues            []string        `json:"issues"`
}

const erc20ABIJSON = `[
  {"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

const erc1155ABIJSON = `[
  {"inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],"name":"setApprovalForAll","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"account","type":"address"},{"name":"operator","type":"address"}],"name":"isApprovedForAll","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"}
]`

// NewApprovalService 创建授权服务。
// owner 是持有资金的账户：直连场景为 EOA，代理出资场景为代理合约地址。
func NewApprovalService(caller ethereum.ContractCaller, executor TxExecutor, owner common.Address, chain types.Chain, log *logrus.Entry) (*ApprovalService, error) {
	cfg, err := GetContractConfig(chain)
	if err != nil {
		return nil, err
	}

	a20, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, errors.Wrap(err, "解析 ERC20 ABI 失败")
	}
	a1155, err := abi.JSON(strings.NewReader(erc1155ABIJSON))
	if err != nil {
		return nil, errors.Wrap(err, "解析 ERC1155 ABI 失败")
	}

	return &ApprovalService{
		caller:            caller,
		executor:          executor,
		owner:             owner,
		log:               log,
		collateral:        common.HexToAddress(cfg.Collateral),
		conditionalTokens: common.HexToAddress(cfg.ConditionalTokens),
		spenders:          toNamedAddresses(cfg.ExchangeSpenders()),
		operators:         toNamedAddresses(cfg.OperatorTargets()),
		erc20ABI:          a20,
		erc1155ABI:        a1155,
	}, nil
}

// DialCaller 连接 RPC 节点，只用于链上读
func DialCaller(rpcURL string) (*ethclient.Client, error) {
	ec, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "连接 RPC 节点失败")
	}
	return ec, nil
}

// DialApprovalService 连接 RPC 节点并用直连执行器创建授权服务
func DialApprovalService(rpcURL string, chain types.Chain, wallet *signing.Wallet, log *logrus.Entry) (*ApprovalService, error) {
	ec, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "连接 RPC 节点失败")
	}
	executor := NewChainExecutor(ec, wallet, big.NewInt(int64(chain)))
	return NewApprovalService(ec, executor, wallet.Address(), chain, log)
}

// EnsureTradingApprovals 确保指定方向的交易授权就位。
// 幂等：授权已充足时不发任何交易直接返回。
// 授权交易失败或回滚时返回 APPROVAL_FAILED，调用方不得继续下单。
func (s *ApprovalService) EnsureTradingApprovals(ctx context.Context, side types.Side, required *big.Int) error {
	if side == types.SideBuy {
		return s.ensureCollateralAllowances(ctx, required)
	}
	return s.ensureOperatorApprovals(ctx)
}

func (s *ApprovalService) ensureCollateralAllowances(ctx context.Context, required *big.Int) error {
	allowances, err := s.readAllowances(ctx)
	if err != nil {
		return types.NewPipelineError(types.ErrApprovalFailed, "approvals",
			"查询稳定币 allowance 失败", err)
	}
	for i, sp := range s.spenders {
		if allowances[i].Cmp(required) >= 0 {
			continue
		}

		s.log.WithFields(logrus.Fields{
			"spender":   sp.Name,
			"allowance": allowances[i].String(),
			"required":  required.String(),
		}).Info("稳定币授权不足, 发送 approve")

		// 一次性授权最大值，后续订单不再需要链上交互
		max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
		data, err := s.erc20ABI.Pack("approve", sp.Address, max)
		if err != nil {
			return types.NewPipelineError(types.ErrApprovalFailed, "approvals",
				"编码 approve 调用失败", err)
		}
		txHash, err := s.executor.Execute(ctx, s.collateral, data, big.NewInt(0))
		if err != nil {
			return types.NewPipelineError(types.ErrApprovalFailed, "approvals",
				sp.Name+" 的稳定币授权交易失败", err)
		}
		s.log.WithField("tx", txHash.Hex()).Info("稳定币授权确认")
	}
	return nil
}

func (s *ApprovalService) ensureOperatorApprovals(ctx context.Context) error {
	approvals, err := s.readOperatorApprovals(ctx)
	if err != nil {
		return types.NewPipelineError(types.ErrApprovalFailed, "approvals",
			"查询 operator approval 失败", err)
	}
	for i, op := range s.operators {
		if approvals[i] {
			continue
		}

		s.log.WithField("operator", op.Name).Info("条件代币未授权, 发送 setApprovalForAll")

		data, err := s.erc1155ABI.Pack("setApprovalForAll", op.Address, true)
		if err != nil {
			return types.NewPipelineError(types.ErrApprovalFailed, "approvals",
				"编码 setApprovalForAll 调用失败", err)
		}
		txHash, err := s.executor.Execute(ctx, s.conditionalTokens, data, big.NewInt(0))
		if err != nil {
			return types.NewPipelineError(types.ErrApprovalFailed, "approvals",
				op.Name+" 的条件代币授权交易失败", err)
		}
		s.log.WithField("tx", txHash.Hex()).Info("条件代币授权确认")
	}
	return nil
}

// readAllowances 并发读取各 spender 的 allowance，结果顺序与 s.spenders 一致
func (s *ApprovalService) readAllowances(ctx context.Context) ([]*big.Int, error) {
	results := make([]*big.Int, len(s.spenders))
	errs := make([]error, len(s.spenders))

	var wg sync.WaitGroup
	for i, sp := range s.spenders {
		wg.Add(1)
		go func(i int, spender common.Address) {
			defer wg.Done()
			results[i], errs[i] = s.allowance(ctx, spender)
		}(i, sp.Address)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrap(err, s.spenders[i].Name)
		}
	}
	return results, nil
}

// readOperatorApprovals 并发读取各 operator 的授权状态，结果顺序与 s.operators 一致
func (s *ApprovalService) readOperatorApprovals(ctx context.Context) ([]bool, error) {
	results := make([]bool, len(s.operators))
	errs := make([]error, len(s.operators))

	var wg sync.WaitGroup
	for i, op := range s.operators {
		wg.Add(1)
		go func(i int, operator common.Address) {
			defer wg.Done()
			results[i], errs[i] = s.isApprovedForAll(ctx, operator)
		}(i, op.Address)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrap(err, s.operators[i].Name)
		}
	}
	return results, nil
}

// CheckAllowances 只读诊断：余额、各合约授权状态与缺口清单
func (s *ApprovalService) CheckAllowances(ctx context.Context) (*AllowancesResult, error) {
	balance, err := s.collateralBalance(ctx)
	if err != nil {
		return nil, err
	}
	allowances, err := s.readAllowances(ctx)
	if err != nil {
		return nil, err
	}
	operatorOK, err := s.readOperatorApprovals(ctx)
	if err != nil {
		return nil, err
	}

	issues := make([]string, 0, 6)
	erc20Infos := make([]AllowanceInfo, 0, len(s.spenders))
	for i, sp := range s.spenders {
		approved := allowances[i].Sign() > 0
		info := AllowanceInfo{
			Contract:  sp.Name,
			Address:   sp.Address.Hex(),
			Approved:  approved,
			Allowance: allowances[i].String(),
		}
		if !approved {
			issues = append(issues, "ERC20: "+sp.Name+" 需要稳定币授权")
		}
		erc20Infos = append(erc20Infos, info)
	}

	erc1155Infos := make([]AllowanceInfo, 0, len(s.operators))
	for i, op := range s.operators {
		ok := operatorOK[i]
		if !ok {
			issues = append(issues, "ERC1155: "+op.Name+" 需要条件代币授权")
		}
		erc1155Infos = append(erc1155Infos, AllowanceInfo{
			Contract: op.Name,
			Address:  op.Address.Hex(),
			Approved: ok,
		})
	}

	return &AllowancesResult{
		Wallet:            s.owner.Hex(),
		CollateralBalance: balance.String(),
		Erc20Allowances:   erc20Infos,
		Erc1155Approvals:  erc1155Infos,
		TradingReady:      len(issues) == 0,
		Issues:            issues,
	}, nil
}

func (s *ApprovalService) collateralBalance(ctx context.Context) (*big.Int, error) {
	data, err := s.erc20ABI.Pack("balanceOf", s.owner)
	if err != nil {
		return nil, err
	}
	raw, err := s.caller.CallContract(ctx, ethereum.CallMsg{To: &s.collateral, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "call balanceOf")
	}
	var bal *big.Int
	if err := s.erc20ABI.UnpackIntoInterface(&bal, "balanceOf", raw); err != nil {
		return nil, err
	}
	return bal, nil
}

func (s *ApprovalService) allowance(ctx context.Context, spender common.Address) (*big.Int, error) {
	data, err := s.erc20ABI.Pack("allowance", s.owner, spender)
	if err != nil {
		return nil, err
	}
	raw, err := s.caller.CallContract(ctx, ethereum.CallMsg{To: &s.collateral, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "call allowance")
	}
	var allowance *big.Int
	if err := s.erc20ABI.UnpackIntoInterface(&allowance, "allowance", raw); err != nil {
		return nil, err
	}
	return allowance, nil
}

func (s *ApprovalService) isApprovedForAll(ctx context.Context, operator common.Address) (bool, error) {
	data, err := s.erc1155ABI.Pack("isApprovedForAll", s.owner, operator)
	if err != nil {
		return false, err
	}
	raw, err := s.caller.CallContract(ctx, ethereum.CallMsg{To: &s.conditionalTokens, Data: data}, nil)
	if err != nil {
		return false, errors.Wrap(err, "call isApprovedForAll")
	}
	var ok bool
	if err := s.erc1155ABI.UnpackIntoInterface(&ok, "isApprovedForAll", raw); err != nil {
		return false, err
	}
	return ok, nil
}
