package signing

const (
	// ClobDomainName L1 认证 EIP712 域名名称
	ClobDomainName = "ClobAuthDomain"

	// ClobVersion L1 认证 EIP712 版本
	ClobVersion = "1"

	// MsgToSign L1 认证签名消息
	MsgToSign = "This message attests that I control the given wallet"

	// ExchangeDomainName 订单 EIP712 域名名称
	ExchangeDomainName = "Polymarket CTF Exchange"

	// ExchangeDomainVersion 订单 EIP712 版本
	ExchangeDomainVersion = "1"
)
