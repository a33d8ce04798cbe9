package client

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// transport 封装 CLOB REST 传输层。
// 不做自动重试：被拒绝的订单是终态，静默重试同一签名载荷可能重复交易意图；
// 需要重试的调用方应换新 salt/nonce 重新走管线。
type transport struct {
	rc   *resty.Client
	host string
}

// newTransport 创建传输层，timeout 约束每个请求的总时长
func newTransport(host string, timeout time.Duration) *transport {
	host = strings.TrimSuffix(host, "/")
	rc := resty.New().
		SetBaseURL(host).
		SetTimeout(timeout).
		SetHeader("User-Agent", "polyorder-clob").
		SetHeader("Accept", "*/*")
	return &transport{rc: rc, host: host}
}

// apiError 服务端非 2xx 响应
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return errors.Errorf("HTTP %d: %s", e.StatusCode, e.Body).Error()
}

// isTimeout 判断错误是否为超时（结果未知），而非服务端拒绝
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// statusOf 提取服务端错误状态码；非 apiError 返回 0
func statusOf(err error) int {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

func (t *transport) get(ctx context.Context, path string, headers map[string]string, params map[string]string, result interface{}) error {
	req := t.rc.R().SetContext(ctx).SetHeaders(headers)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(path)
	return t.finish(resp, err, result)
}

// postJSON 发送预序列化的 JSON 请求体。
// 请求体由调用方序列化，保证与 L2 HMAC 签名覆盖的字节完全一致。
func (t *transport) postJSON(ctx context.Context, path string, headers map[string]string, body string, result interface{}) error {
	req := t.rc.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetHeader("Content-Type", "application/json")
	if body != "" {
		req.SetBody(body)
	}
	resp, err := req.Post(path)
	return t.finish(resp, err, result)
}

// del 发送带预序列化 JSON 请求体的 DELETE（撤单接口的请求体参与 L2 签名）
func (t *transport) del(ctx context.Context, path string, headers map[string]string, body string, result interface{}) error {
	req := t.rc.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetHeader("Content-Type", "application/json")
	if body != "" {
		req.SetBody(body)
	}
	resp, err := req.Delete(path)
	return t.finish(resp, err, result)
}

func (t *transport) finish(resp *resty.Response, err error, result interface{}) error {
	if err != nil {
		return err
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return &apiError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	if result != nil {
		if err := json.Unmarshal(resp.Body(), result); err != nil {
			return errors.Wrapf(err, "解析响应失败: %s", string(resp.Body()))
		}
	}
	return nil
}
