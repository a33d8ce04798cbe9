package signing

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/betbot/polyorder/clob/types"
)

// orderTypedData 构建订单的 EIP712 TypedData。
// 域和字段顺序是与交易所验证逻辑的线协议，必须逐字节一致：
// 任何偏差（字段顺序、类型宽度、域字段）都会产生交易所拒绝的签名。
func orderTypedData(chainID types.Chain, exchangeAddress string, order *types.Order) apitypes.TypedData {
	domain := apitypes.TypedDataDomain{
		Name:              ExchangeDomainName,
		Version:           ExchangeDomainVersion,
		ChainId:           math.NewHexOrDecimal256(int64(chainID)),
		VerifyingContract: exchangeAddress,
	}

	typeDefs := apitypes.Types{
		"EIP712Domain": {
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		},
		"Order": {
			{Name: "salt", Type: "uint256"},
			{Name: "maker", Type: "address"},
			{Name: "signer", Type: "address"},
			{Name: "taker", Type: "address"},
			{Name: "tokenId", Type: "uint256"},
			{Name: "makerAmount", Type: "uint256"},
			{Name: "takerAmount", Type: "uint256"},
			{Name: "expiration", Type: "uint256"},
			{Name: "nonce", Type: "uint256"},
			{Name: "feeRateBps", Type: "uint256"},
			{Name: "side", Type: "uint8"},
			{Name: "signatureType", Type: "uint8"},
		},
	}

	message := map[string]interface{}{
		"salt":          order.Salt,
		"maker":         common.HexToAddress(order.Maker).Hex(),
		"signer":        common.HexToAddress(order.Signer).Hex(),
		"taker":         common.HexToAddress(order.Taker).Hex(),
		"tokenId":       order.TokenID,
		"makerAmount":   order.MakerAmount.Value,
		"takerAmount":   order.TakerAmount.Value,
		"expiration":    order.Expiration,
		"nonce":         order.Nonce,
		"feeRateBps":    order.FeeRateBps,
		"side":          big.NewInt(int64(order.Side.Uint8())),
		"signatureType": big.NewInt(int64(order.SignatureType)),
	}

	return apitypes.TypedData{
		Types:       typeDefs,
		PrimaryType: "Order",
		Domain:      domain,
		Message:     message,
	}
}

// OrderDigest 计算订单的 EIP712 摘要（\x19\x01 + domainSeparator + hashStruct）
func OrderDigest(chainID types.Chain, exchangeAddress string, order *types.Order) ([]byte, error) {
	typedData := orderTypedData(chainID, exchangeAddress, order)
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("计算 EIP712 哈希失败: %w", err)
	}
	return hash, nil
}

// SignOrder 用签名私钥对订单做 EIP712 签名，返回 0x 前缀的 65 字节签名。
// 私钥不落日志、不持久化。
func SignOrder(
	privateKey *ecdsa.PrivateKey,
	chainID types.Chain,
	exchangeAddress string,
	order *types.Order,
) (string, error) {
	if privateKey == nil {
		return "", fmt.Errorf("签名私钥未配置")
	}

	hash, err := OrderDigest(chainID, exchangeAddress, order)
	if err != nil {
		return "", err
	}

	signature, err := crypto.Sign(hash, privateKey)
	if err != nil {
		return "", fmt.Errorf("签名失败: %w", err)
	}

	// crypto.Sign 返回 v ∈ {0,1}，链上验证端期望 {27,28}
	if signature[64] < 27 {
		signature[64] += 27
	}

	return "0x" + common.Bytes2Hex(signature), nil
}

// RecoverOrderSigner 从订单签名恢复签名者地址
func RecoverOrderSigner(
	chainID types.Chain,
	exchangeAddress string,
	order *types.Order,
	signatureHex string,
) (common.Address, error) {
	hash, err := OrderDigest(chainID, exchangeAddress, order)
	if err != nil {
		return common.Address{}, err
	}

	sig := common.FromHex(signatureHex)
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("签名长度无效: %d", len(sig))
	}

	// 恢复要求 v ∈ {0,1}
	recSig := make([]byte, 65)
	copy(recSig, sig)
	if recSig[64] >= 27 {
		recSig[64] -= 27
	}

	pub, err := crypto.SigToPub(hash, recSig)
	if err != nil {
		return common.Address{}, fmt.Errorf("恢复公钥失败: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifyOrderSignature 校验签名是否由订单的 signer 字段地址产生
func VerifyOrderSignature(
	chainID types.Chain,
	exchangeAddress string,
	order *types.Order,
	signatureHex string,
) error {
	recovered, err := RecoverOrderSigner(chainID, exchangeAddress, order, signatureHex)
	if err != nil {
		return err
	}
	if recovered != common.HexToAddress(order.Signer) {
		return fmt.Errorf("签名者不匹配: 恢复 %s，期望 %s", recovered.Hex(), order.Signer)
	}
	return nil
}
