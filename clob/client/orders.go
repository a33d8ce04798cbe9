package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/betbot/polyorder/clob/signing"
	"github.com/betbot/polyorder/clob/types"
	"github.com/betbot/polyorder/pkg/ratelimit"
)

// PostOrder 提交已签名订单。
//
// 三种结果必须区分开：
//   - 接受：resp.Success 为 true，返回订单 ID
//   - 拒绝：服务端应答 Success=false 或非 2xx，错误信息原样透传，结果是终态
//   - 超时/网络错误：结果未知，订单可能已进入撮合簿，调用方必须先对账再重试
//
// 这里不做自动重试：换新 salt/nonce 重新构建订单才是安全的重试方式。
func (c *Client) PostOrder(ctx context.Context, order *types.SignedOrder, orderType types.OrderType) (*types.OrderResponse, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx, ratelimit.KeyPostOrder); err != nil {
		return nil, types.NewPipelineError(types.ErrSubmissionTimeout, "submission",
			"等待速率限制时取消", err)
	}

	payload := &types.NewOrder{
		Order:     *order,
		Owner:     c.authConfig.Creds.Key,
		OrderType: orderType,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, types.NewPipelineError(types.ErrSubmissionRejected, "submission",
			"序列化订单失败", err)
	}
	bodyStr := string(body)

	headers, err := signing.CreateL2Headers(
		c.authConfig.PrivateKey,
		c.authConfig.Creds,
		&types.L2HeaderArgs{
			Method:      http.MethodPost,
			RequestPath: EndpointPostOrder,
			Body:        &bodyStr,
		},
		nil,
	)
	if err != nil {
		return nil, types.NewPipelineError(types.ErrSigningFailed, "submission",
			"创建 L2 认证头失败", err)
	}

	var resp types.OrderResponse
	err = c.transport.postJSON(ctx, EndpointPostOrder, headers.Map(), bodyStr, &resp)
	if err != nil {
		if isTimeout(err) {
			return nil, types.NewPipelineError(types.ErrSubmissionTimeout, "submission",
				"订单提交超时, 结果未知, 重试前必须先查询开放订单对账", err)
		}
		return nil, types.NewPipelineError(types.ErrSubmissionRejected, "submission",
			"订单被拒绝", err)
	}

	if !resp.Success {
		// 服务端拒绝理由原样透传，不做改写
		return &resp, types.NewPipelineError(types.ErrSubmissionRejected, "submission",
			resp.ErrorMsg, nil)
	}
	return &resp, nil
}

// CancelOrder 取消指定订单
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*types.CancelResponse, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx, ratelimit.KeyCancelOrder); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{"orderID": orderID})
	if err != nil {
		return nil, err
	}
	bodyStr := string(body)

	headers, err := signing.CreateL2Headers(
		c.authConfig.PrivateKey,
		c.authConfig.Creds,
		&types.L2HeaderArgs{
			Method:      http.MethodDelete,
			RequestPath: EndpointCancelOrder,
			Body:        &bodyStr,
		},
		nil,
	)
	if err != nil {
		return nil, err
	}

	var resp types.CancelResponse
	if err := c.transport.del(ctx, EndpointCancelOrder, headers.Map(), bodyStr, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetOrder 查询单个订单状态
func (c *Client) GetOrder(ctx context.Context, orderID string) (*types.OpenOrder, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx, ratelimit.KeyDataAPI); err != nil {
		return nil, err
	}

	path := EndpointGetOrder + orderID
	headers, err := signing.CreateL2Headers(
		c.authConfig.PrivateKey,
		c.authConfig.Creds,
		&types.L2HeaderArgs{Method: http.MethodGet, RequestPath: path},
		nil,
	)
	if err != nil {
		return nil, err
	}

	var order types.OpenOrder
	if err := c.transport.get(ctx, path, headers.Map(), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOpenOrders 查询开放订单。
// 提交超时后的对账入口：按 market/asset 过滤查询，
// 本地记录的 salt 对应订单若已出现，说明前次提交其实成功了。
func (c *Client) GetOpenOrders(ctx context.Context, params *types.OpenOrderParams) ([]types.OpenOrder, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx, ratelimit.KeyDataAPI); err != nil {
		return nil, err
	}

	headers, err := signing.CreateL2Headers(
		c.authConfig.PrivateKey,
		c.authConfig.Creds,
		&types.L2HeaderArgs{Method: http.MethodGet, RequestPath: EndpointGetOpenOrders},
		nil,
	)
	if err != nil {
		return nil, err
	}

	query := map[string]string{}
	if params != nil {
		if params.ID != nil {
			query["id"] = *params.ID
		}
		if params.Market != nil {
			query["market"] = *params.Market
		}
		if params.AssetID != nil {
			query["asset_id"] = *params.AssetID
		}
	}

	var orders []types.OpenOrder
	if err := c.transport.get(ctx, EndpointGetOpenOrders, headers.Map(), query, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
