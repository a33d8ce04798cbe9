package client

import (
	"github.com/shopspring/decimal"

	"github.com/betbot/polyorder/clob/types"
)

// CalcOrderAmounts 把人类单位的 (price, size) 换算成链上整数金额对。
//
// 全程使用 decimal 定点运算，先按代币精度舍入再转整数单位，
// 金额采用标准四舍五入而非截断，避免系统性地少付资金。
//
// BUY:  maker 支付稳定币（price × size），taker 金额为份额数
// SELL: maker 提供份额，taker 金额为稳定币
func CalcOrderAmounts(side types.Side, price float64, size float64) (maker, taker types.TokenAmount, err error) {
	if price <= 0 || price >= 1 {
		return maker, taker, types.NewPipelineError(
			types.ErrInvalidAmount, "amounts",
			"价格必须在 (0,1) 开区间内", nil,
		)
	}
	if size <= 0 {
		return maker, taker, types.NewPipelineError(
			types.ErrInvalidAmount, "amounts",
			"数量必须大于 0", nil,
		)
	}

	priceDec := decimal.NewFromFloat(price)
	sizeDec := decimal.NewFromFloat(size).Round(ConditionalTokenDecimals)

	// 货币金额：price × size，四舍五入到稳定币精度
	currency := priceDec.Mul(sizeDec).Round(CollateralTokenDecimals)
	if currency.IsZero() {
		return maker, taker, types.NewPipelineError(
			types.ErrInvalidAmount, "amounts",
			"订单金额舍入后为零", nil,
		)
	}

	currencyUnits := types.NewTokenAmount(
		currency.Shift(CollateralTokenDecimals).BigInt(),
		CollateralTokenDecimals,
	)
	shareUnits := types.NewTokenAmount(
		sizeDec.Shift(ConditionalTokenDecimals).BigInt(),
		ConditionalTokenDecimals,
	)

	if side == types.SideBuy {
		return currencyUnits, shareUnits, nil
	}
	return shareUnits, currencyUnits, nil
}
