package signing

import (
	"crypto/ecdsa"
	"fmt"

	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet 签名钱包：持有私钥并提供摘要签名。
// 交易执行器和中继执行器都通过它签名，避免到处传裸私钥。
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewWallet 从私钥创建钱包
func NewWallet(privateKey *ecdsa.PrivateKey) *Wallet {
	return &Wallet{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

// NewWalletFromHex 从十六进制私钥创建钱包
func NewWalletFromHex(hexKey string) (*Wallet, error) {
	pk, err := PrivateKeyFromHex(hexKey)
	if err != nil {
		return nil, fmt.Errorf("解析私钥失败: %w", err)
	}
	return NewWallet(pk), nil
}

// NewWalletFromMnemonic 从助记词派生钱包（BIP44 以太坊标准路径）
func NewWalletFromMnemonic(mnemonic string, index int) (*Wallet, error) {
	hd, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("解析助记词失败: %w", err)
	}
	path := hdwallet.MustParseDerivationPath(fmt.Sprintf("m/44'/60'/0'/0/%d", index))
	account, err := hd.Derive(path, false)
	if err != nil {
		return nil, fmt.Errorf("派生账户失败: %w", err)
	}
	pk, err := hd.PrivateKey(account)
	if err != nil {
		return nil, fmt.Errorf("导出私钥失败: %w", err)
	}
	return NewWallet(pk), nil
}

// Address 钱包地址
func (w *Wallet) Address() common.Address {
	return w.address
}

// PrivateKey 底层私钥（交易签名需要）
func (w *Wallet) PrivateKey() *ecdsa.PrivateKey {
	return w.privateKey
}

// SignDigest 对已哈希的 32 字节摘要签名，返回 65 字节 (r,s,v)，v 调整为 27/28
func (w *Wallet) SignDigest(digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("摘要必须是 32 字节, 实际 %d", len(digest))
	}
	sig, err := crypto.Sign(digest, w.privateKey)
	if err != nil {
		return nil, err
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}
