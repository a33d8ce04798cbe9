package signing

import (
	"strings"
	"testing"
)

// 固定向量：签名覆盖 timestamp+method+path+body 的原始字节。
// 实现若改动任何一处（消息拼接、secret 解码、base64url 字母表）这里都会失败。
func TestBuildPolyHmacSignature_PinnedVector(t *testing.T) {
	body := `{"hash": "0x123"}`
	sig, err := BuildPolyHmacSignature(
		"NCTXVFDI0fM9T6t_IQcMpiq7DmgPL0r5FN1U8ACyJFc=",
		1000000,
		"test-sign",
		"/orders",
		&body,
	)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := "ZJVYsqrLK-veSY2HnOplxtYpHKijj_rG3Qpm0ySqxxQ="
	if sig != want {
		t.Fatalf("signature = %s, want %s", sig, want)
	}
}

func TestBuildPolyHmacSignature_Deterministic(t *testing.T) {
	body := `{"k":"v"}`
	s1, err := BuildPolyHmacSignature("c2VjcmV0LWtleS0zMi1ieXRlcy1sb25nLXBhZA==", 1700000000, "POST", "/order", &body)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	s2, _ := BuildPolyHmacSignature("c2VjcmV0LWtleS0zMi1ieXRlcy1sb25nLXBhZA==", 1700000000, "POST", "/order", &body)
	if s1 != s2 {
		t.Fatal("同样输入两次签名不一致")
	}
}

func TestBuildPolyHmacSignature_BodyChangesSignature(t *testing.T) {
	b1 := `{"orderID":"1"}`
	b2 := `{"orderID":"2"}`
	s1, _ := BuildPolyHmacSignature("c2VjcmV0LWtleS0zMi1ieXRlcy1sb25nLXBhZA==", 1700000000, "POST", "/order", &b1)
	s2, _ := BuildPolyHmacSignature("c2VjcmV0LWtleS0zMi1ieXRlcy1sb25nLXBhZA==", 1700000000, "POST", "/order", &b2)
	if s1 == s2 {
		t.Fatal("不同请求体产生了相同签名")
	}
}

func TestBuildPolyHmacSignature_URLSafeAlphabet(t *testing.T) {
	for i := int64(0); i < 50; i++ {
		body := strings.Repeat("x", int(i))
		sig, err := BuildPolyHmacSignature("c2VjcmV0LWtleS0zMi1ieXRlcy1sb25nLXBhZA==", 1700000000+i, "GET", "/data/orders", &body)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if strings.ContainsAny(sig, "+/") {
			t.Fatalf("签名包含非 URL 安全字符: %s", sig)
		}
	}
}

func TestBuildPolyHmacSignature_NilBody(t *testing.T) {
	withNil, err := BuildPolyHmacSignature("c2VjcmV0LWtleS0zMi1ieXRlcy1sb25nLXBhZA==", 1700000000, "GET", "/data/orders", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	empty := ""
	withEmpty, _ := BuildPolyHmacSignature("c2VjcmV0LWtleS0zMi1ieXRlcy1sb25nLXBhZA==", 1700000000, "GET", "/data/orders", &empty)
	if withNil != withEmpty {
		t.Fatal("nil body 与空 body 签名应一致")
	}
}
