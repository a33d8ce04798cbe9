package types

// Side 订单方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Uint8 返回链上编码用的方向值（BUY=0, SELL=1）
func (s Side) Uint8() uint8 {
	if s == SideBuy {
		return 0
	}
	return 1
}

// OrderType 订单生命周期类型
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good Till Cancel - 一直有效直到取消
	OrderTypeFOK OrderType = "FOK" // Fill or Kill - 全部成交或全部取消
	OrderTypeGTD OrderType = "GTD" // Good Till Date - 指定日期前有效
	OrderTypeFAK OrderType = "FAK" // Fill and Kill - 部分成交，剩余取消
)

// Chain 区块链网络
type Chain int

const (
	ChainPolygon Chain = 137
	ChainAmoy    Chain = 80002
)

// SignatureType 签名托管模型
type SignatureType int

const (
	SignatureTypeEOA        SignatureType = 0 // 普通私钥账户，maker == signer
	SignatureTypeMagic      SignatureType = 1 // POLY_PROXY - Magic Link 代理钱包
	SignatureTypeProxySafe  SignatureType = 2 // GNOSIS_SAFE - 智能账户代理出资，EOA 签名
)

// AssetType 资产类型
type AssetType string

const (
	AssetTypeCollateral  AssetType = "COLLATERAL"
	AssetTypeConditional AssetType = "CONDITIONAL"
)

// ApiKeyCreds API 密钥凭证（key/secret/passphrase 三元组，绑定一个签名地址）
type ApiKeyCreds struct {
	Key        string `json:"key"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// ApiKeyRaw 原始 API 密钥（API 返回格式）
type ApiKeyRaw struct {
	ApiKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// ZeroAddress 公开订单的 taker 哨兵地址
const ZeroAddress = "0x0000000000000000000000000000000000000000"
