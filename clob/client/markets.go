package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/betbot/polyorder/clob/signing"
	"github.com/betbot/polyorder/clob/types"
	"github.com/betbot/polyorder/pkg/ratelimit"
)

// GetOrderBook 获取订单簿摘要（公开端点，不需认证）
func (c *Client) GetOrderBook(ctx context.Context, tokenID string) (*types.OrderBookSummary, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.KeyMarketData); err != nil {
		return nil, err
	}
	var book types.OrderBookSummary
	params := map[string]string{"token_id": tokenID}
	if err := c.transport.get(ctx, EndpointGetOrderBook, nil, params, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// GetMidpoint 获取市场中间价
func (c *Client) GetMidpoint(ctx context.Context, tokenID string) (*types.MidpointResponse, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.KeyMarketData); err != nil {
		return nil, err
	}
	var mid types.MidpointResponse
	params := map[string]string{"token_id": tokenID}
	if err := c.transport.get(ctx, EndpointGetMidpoint, nil, params, &mid); err != nil {
		return nil, err
	}
	return &mid, nil
}

// GetPrice 获取指定方向的市场价格
func (c *Client) GetPrice(ctx context.Context, tokenID string, side types.Side) (*types.MarketPrice, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.KeyMarketData); err != nil {
		return nil, err
	}
	var price types.MarketPrice
	params := map[string]string{"token_id": tokenID, "side": string(side)}
	if err := c.transport.get(ctx, EndpointGetPrice, nil, params, &price); err != nil {
		return nil, err
	}
	return &price, nil
}

// GetLastTradePrice 获取最新成交价
func (c *Client) GetLastTradePrice(ctx context.Context, tokenID string) (*types.LastTradePrice, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.KeyMarketData); err != nil {
		return nil, err
	}
	var last types.LastTradePrice
	params := map[string]string{"token_id": tokenID}
	if err := c.transport.get(ctx, EndpointGetLastTradePrice, nil, params, &last); err != nil {
		return nil, err
	}
	return &last, nil
}

// GetTrades 查询成交记录（L2 认证）
func (c *Client) GetTrades(ctx context.Context, params *types.TradeParams) ([]types.Trade, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx, ratelimit.KeyDataAPI); err != nil {
		return nil, err
	}

	headers, err := signing.CreateL2Headers(
		c.authConfig.PrivateKey,
		c.authConfig.Creds,
		&types.L2HeaderArgs{Method: http.MethodGet, RequestPath: EndpointGetTrades},
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
		if params.MakerAddress != nil {
			query["maker_address"] = *params.MakerAddress
		}
		if params.Market != nil {
			query["market"] = *params.Market
		}
		if params.AssetID != nil {
			query["asset_id"] = *params.AssetID
		}
		if params.Before != nil {
			query["before"] = *params.Before
		}
		if params.After != nil {
			query["after"] = *params.After
		}
	}

	var trades []types.Trade
	if err := c.transport.get(ctx, EndpointGetTrades, headers.Map(), query, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

// GetBalanceAllowance 查询撮合服务视角的余额与授权（L2 认证）
func (c *Client) GetBalanceAllowance(ctx context.Context, params *types.BalanceAllowanceParams) (*types.BalanceAllowanceResponse, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx, ratelimit.KeyDataAPI); err != nil {
		return nil, err
	}

	headers, err := signing.CreateL2Headers(
		c.authConfig.PrivateKey,
		c.authConfig.Creds,
		&types.L2HeaderArgs{Method: http.MethodGet, RequestPath: EndpointGetBalanceAllowance},
		nil,
	)
	if err != nil {
		return nil, err
	}

	query := map[string]string{"asset_type": string(params.AssetType)}
	if params.TokenID != nil {
		query["token_id"] = *params.TokenID
	}
	sigType := c.signatureType
	if params.SignatureType != nil {
		sigType = *params.SignatureType
	}
	query["signature_type"] = strconv.Itoa(int(sigType))

	var resp types.BalanceAllowanceResponse
	if err := c.transport.get(ctx, EndpointGetBalanceAllowance, headers.Map(), query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
