package types

import "math/big"

// TokenAmount 代币最小单位的精确整数金额，附带精度信息。
// 所有运算必须在定点（decimal）表示下完成后再转换到这里，禁止浮点。
type TokenAmount struct {
	Value    *big.Int
	Decimals int32
}

// NewTokenAmount 构造 TokenAmount
func NewTokenAmount(value *big.Int, decimals int32) TokenAmount {
	return TokenAmount{Value: value, Decimals: decimals}
}

// String 返回整数单位的十进制字符串
func (a TokenAmount) String() string {
	if a.Value == nil {
		return "0"
	}
	return a.Value.String()
}

// OrderRequest 用户下单请求（人类单位）
type OrderRequest struct {
	// TokenID 条件代币资产 ID
	TokenID string

	// Price 订单价格，必须在 (0,1) 开区间内
	Price float64

	// Size 条件代币数量，必须大于 0
	Size float64

	// Side 订单方向
	Side Side

	// FeeRateBps 手续费率（基点），可选
	FeeRateBps *int

	// Expiration 订单过期时间戳（秒），可选，0 表示永不过期
	Expiration *int64

	// Taker 订单接受者地址，零地址表示公开订单，可选
	Taker *string
}

// Order 未签名订单记录。签名覆盖的字段一经签名即不可变，
// 任何改动都会使签名失效并要求重新签名。
type Order struct {
	Salt          *big.Int
	Maker         string
	Signer        string
	Taker         string
	TokenID       *big.Int
	MakerAmount   TokenAmount
	TakerAmount   TokenAmount
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          Side
	SignatureType SignatureType
}

// Attach 将签名附加到订单，生成提交用的 SignedOrder
func (o *Order) Attach(signature string) *SignedOrder {
	return &SignedOrder{
		Salt:          o.Salt.String(),
		Maker:         o.Maker,
		Signer:        o.Signer,
		Taker:         o.Taker,
		TokenID:       o.TokenID.String(),
		MakerAmount:   o.MakerAmount.String(),
		TakerAmount:   o.TakerAmount.String(),
		Expiration:    o.Expiration.String(),
		Nonce:         o.Nonce.String(),
		FeeRateBps:    o.FeeRateBps.String(),
		Side:          o.Side,
		SignatureType: int(o.SignatureType),
		Signature:     signature,
	}
}

// SignedOrder 已签名的订单（提交给撮合服务的线格式）
type SignedOrder struct {
	Salt          string `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          Side   `json:"side"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

// NewOrder 订单提交载荷（订单 + 生命周期类型）
type NewOrder struct {
	Order     SignedOrder `json:"order"`
	Owner     string      `json:"owner"`
	OrderType OrderType   `json:"orderType"`
}

// OrderResponse 订单提交响应
type OrderResponse struct {
	Success           bool     `json:"success"`
	ErrorMsg          string   `json:"errorMsg"`
	OrderID           string   `json:"orderID"`
	TransactionHashes []string `json:"transactionsHashes"`
	Status            string   `json:"status"`
	TakingAmount      string   `json:"takingAmount"`
	MakingAmount      string   `json:"makingAmount"`
}

// CancelResponse 撤单响应
type CancelResponse struct {
	Canceled    []string          `json:"canceled"`
	NotCanceled map[string]string `json:"not_canceled"`
}

// OpenOrder 开放订单
type OpenOrder struct {
	ID              string   `json:"id"`
	Status          string   `json:"status"`
	Owner           string   `json:"owner"`
	MakerAddress    string   `json:"maker_address"`
	Market          string   `json:"market"`
	AssetID         string   `json:"asset_id"`
	Side            string   `json:"side"`
	OriginalSize    string   `json:"original_size"`
	SizeMatched     string   `json:"size_matched"`
	Price           string   `json:"price"`
	AssociateTrades []string `json:"associate_trades"`
	Outcome         string   `json:"outcome"`
	CreatedAt       int64    `json:"created_at"`
	Expiration      string   `json:"expiration"`
	OrderType       string   `json:"order_type"`
}

// OpenOrderParams 查询开放订单参数
type OpenOrderParams struct {
	ID      *string
	Market  *string
	AssetID *string
}
