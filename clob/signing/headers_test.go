package signing

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/betbot/polyorder/clob/types"
)

func TestCreateL1Headers(t *testing.T) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	ts := int64(1700000000)
	nonce := int64(0)
	headers, err := CreateL1Headers(pk, types.ChainPolygon, &nonce, &ts)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	wantAddr := crypto.PubkeyToAddress(pk.PublicKey).Hex()
	if headers.PolyAddress != wantAddr {
		t.Fatalf("address = %s, want %s", headers.PolyAddress, wantAddr)
	}
	if headers.PolyTimestamp != "1700000000" {
		t.Fatalf("timestamp = %s", headers.PolyTimestamp)
	}
	if headers.PolyNonce != "0" {
		t.Fatalf("nonce = %s", headers.PolyNonce)
	}
	// 65 字节签名 + 0x 前缀
	if !strings.HasPrefix(headers.PolySignature, "0x") || len(headers.PolySignature) != 2+65*2 {
		t.Fatalf("签名格式异常: %s", headers.PolySignature)
	}

	m := headers.Map()
	for _, key := range []string{"POLY_ADDRESS", "POLY_SIGNATURE", "POLY_TIMESTAMP", "POLY_NONCE"} {
		if m[key] == "" {
			t.Fatalf("缺少请求头 %s", key)
		}
	}
}

func TestCreateL2Headers_CoversBody(t *testing.T) {
	pk, _ := crypto.GenerateKey()
	creds := &types.ApiKeyCreds{
		Key:        "key-1",
		Secret:     "c2VjcmV0LWtleS0zMi1ieXRlcy1sb25nLXBhZA==",
		Passphrase: "pass-1",
	}

	ts := int64(1700000000)
	body1 := `{"order":"a"}`
	body2 := `{"order":"b"}`

	h1, err := CreateL2Headers(pk, creds, &types.L2HeaderArgs{Method: "POST", RequestPath: "/order", Body: &body1}, &ts)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	h2, err := CreateL2Headers(pk, creds, &types.L2HeaderArgs{Method: "POST", RequestPath: "/order", Body: &body2}, &ts)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if h1.PolySignature == h2.PolySignature {
		t.Fatal("不同请求体产生了相同 L2 签名")
	}
	if h1.PolyAPIKey != "key-1" || h1.PolyPassphrase != "pass-1" {
		t.Fatalf("凭证字段透传错误: %+v", h1)
	}
}
