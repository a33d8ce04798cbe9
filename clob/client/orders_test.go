package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/betbot/polyorder/clob/types"
)

var testCreds = &types.ApiKeyCreds{
	Key:        "11111111-2222-3333-4444-555555555555",
	Secret:     "c2VjcmV0LWtleS0zMi1ieXRlcy1sb25nLXBhZA==",
	Passphrase: "passphrase",
}

func newTestClient(t *testing.T, host string, creds *types.ApiKeyCreds, timeout time.Duration) *Client {
	t.Helper()
	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return NewClientWithTimeout(host, types.ChainPolygon, pk, creds, timeout)
}

func testSignedOrder() *types.SignedOrder {
	return &types.SignedOrder{
		Salt:          "479249096354",
		Maker:         "0x1111111111111111111111111111111111111111",
		Signer:        "0x1111111111111111111111111111111111111111",
		Taker:         types.ZeroAddress,
		TokenID:       "1234",
		MakerAmount:   "42000000",
		TakerAmount:   "100000000",
		Expiration:    "0",
		Nonce:         "1",
		FeeRateBps:    "0",
		Side:          types.SideBuy,
		SignatureType: 0,
		Signature:     "0xabcdef",
	}
}

// 服务端 Success=false 是终态拒绝：错误信息必须原样透传
func TestPostOrder_RejectionPropagatesErrorMsg(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"errorMsg":"not enough balance / allowance","orderID":""}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, testCreds, 5*time.Second)
	resp, err := c.PostOrder(context.Background(), testSignedOrder(), types.OrderTypeGTC)
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if !types.IsKind(err, types.ErrSubmissionRejected) {
		t.Fatalf("kind = %s, want %s", types.KindOf(err), types.ErrSubmissionRejected)
	}

	var pe *types.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("not a PipelineError: %v", err)
	}
	if pe.Message != "not enough balance / allowance" {
		t.Fatalf("拒绝理由被改写: %q", pe.Message)
	}
	if resp == nil || resp.Success {
		t.Fatalf("响应应返回且 Success=false: %+v", resp)
	}
}

func TestPostOrder_HTTPErrorIsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid order"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, testCreds, 5*time.Second)
	_, err := c.PostOrder(context.Background(), testSignedOrder(), types.OrderTypeGTC)
	if !types.IsKind(err, types.ErrSubmissionRejected) {
		t.Fatalf("kind = %s, want %s", types.KindOf(err), types.ErrSubmissionRejected)
	}
}

// 超时结果未知：必须归类为 SUBMISSION_TIMEOUT 而不是拒绝
func TestPostOrder_TimeoutIsUnknownOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, testCreds, 50*time.Millisecond)
	_, err := c.PostOrder(context.Background(), testSignedOrder(), types.OrderTypeGTC)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !types.IsKind(err, types.ErrSubmissionTimeout) {
		t.Fatalf("kind = %s, want %s: %v", types.KindOf(err), types.ErrSubmissionTimeout, err)
	}
}

func TestPostOrder_Success(t *testing.T) {
	var gotOwner atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("POLY_API_KEY") == "" || r.Header.Get("POLY_SIGNATURE") == "" {
			t.Error("缺少 L2 认证头")
		}
		gotOwner.Store(r.Header.Get("POLY_API_KEY"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"orderID":"0xorder1","status":"live"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, testCreds, 5*time.Second)
	resp, err := c.PostOrder(context.Background(), testSignedOrder(), types.OrderTypeGTC)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if resp.OrderID != "0xorder1" || resp.Status != "live" {
		t.Fatalf("resp = %+v", resp)
	}
	if gotOwner.Load() != testCreds.Key {
		t.Fatalf("owner = %v", gotOwner.Load())
	}
}

func TestPostOrder_RequiresCreds(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:0", nil, time.Second)
	_, err := c.PostOrder(context.Background(), testSignedOrder(), types.OrderTypeGTC)
	if !types.IsKind(err, types.ErrCredential) {
		t.Fatalf("kind = %s, want %s", types.KindOf(err), types.ErrCredential)
	}
}

// 凭证推导：已有密钥直接返回，400 时创建新密钥
func TestCreateOrDeriveAPIKey_DeriveThenCreate(t *testing.T) {
	var deriveCalls, createCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == EndpointDeriveAPIKey:
			deriveCalls.Add(1)
			http.Error(w, `{"error":"api key not found"}`, http.StatusBadRequest)
		case r.Method == http.MethodPost && r.URL.Path == EndpointCreateAPIKey:
			createCalls.Add(1)
			w.Write([]byte(`{"apiKey":"new-key","secret":"bmV3LXNlY3JldA==","passphrase":"new-pass"}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil, 5*time.Second)
	creds, err := c.CreateOrDeriveAPIKey(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if creds.Key != "new-key" || creds.Passphrase != "new-pass" {
		t.Fatalf("creds = %+v", creds)
	}
	if deriveCalls.Load() != 1 || createCalls.Load() != 1 {
		t.Fatalf("calls = %d/%d", deriveCalls.Load(), createCalls.Load())
	}
	// 凭证已缓存到会话
	if c.Creds() == nil || c.Creds().Key != "new-key" {
		t.Fatal("凭证未缓存到会话")
	}
}

func TestEnsureCreds_UsesSessionCache(t *testing.T) {
	var deriveCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deriveCalls.Add(1)
		w.Write([]byte(`{"apiKey":"derived","secret":"ZGVyaXZlZC1zZWNyZXQ=","passphrase":"p"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil, 5*time.Second)
	if _, err := c.EnsureCreds(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := c.EnsureCreds(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if deriveCalls.Load() != 1 {
		t.Fatalf("derive 被调用 %d 次, 期望 1 次", deriveCalls.Load())
	}
}
