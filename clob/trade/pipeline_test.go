package trade

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/polyorder/clob/types"
	"github.com/betbot/polyorder/pkg/config"
)

func dryRunConfig() *config.Config {
	return &config.Config{
		Wallet: config.WalletConfig{
			PrivateKey: "0000000000000000000000000000000000000000000000000000000000000001",
		},
		ChainID:        137,
		ClobHost:       "https://clob.polymarket.com",
		RPCURL:         "https://polygon-rpc.com",
		RequestTimeout: 15,
		LogLevel:       "info",
		DryRun:         true,
	}
}

func newDryRunPipeline(t *testing.T) *Pipeline {
	t.Helper()
	log := logrus.NewEntry(logrus.New())
	p, err := NewPipeline(dryRunConfig(), nil, log)
	require.NoError(t, err)
	return p
}

// 纸交易走完 金额→构建→签名，不触网也不触链
func TestPipeline_DryRunPlaceOrder(t *testing.T) {
	p := newDryRunPipeline(t)

	result, err := p.PlaceOrder(context.Background(), &PlaceOrderParams{
		TokenID: "123456",
		Price:   0.42,
		Size:    100,
		Side:    types.SideBuy,
	})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Empty(t, result.OrderID)
	assert.Equal(t, "42000000", result.MakerAmount)
	assert.Equal(t, "100000000", result.TakerAmount)
	assert.NotEmpty(t, result.Salt)
}

func TestPipeline_DryRunSaltsDiffer(t *testing.T) {
	p := newDryRunPipeline(t)
	params := &PlaceOrderParams{TokenID: "123456", Price: 0.5, Size: 10, Side: types.SideSell}

	r1, err := p.PlaceOrder(context.Background(), params)
	require.NoError(t, err)
	r2, err := p.PlaceOrder(context.Background(), params)
	require.NoError(t, err)

	assert.NotEqual(t, r1.Salt, r2.Salt)
}

func TestPipeline_InvalidAmountStopsEarly(t *testing.T) {
	p := newDryRunPipeline(t)

	_, err := p.PlaceOrder(context.Background(), &PlaceOrderParams{
		TokenID: "123456",
		Price:   1.5,
		Size:    100,
		Side:    types.SideBuy,
	})
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrInvalidAmount))
}

func TestPipeline_BadTokenID(t *testing.T) {
	p := newDryRunPipeline(t)

	_, err := p.PlaceOrder(context.Background(), &PlaceOrderParams{
		TokenID: "not-a-number",
		Price:   0.5,
		Size:    10,
		Side:    types.SideBuy,
	})
	require.Error(t, err)
}

func TestRequiredCollateral(t *testing.T) {
	amount, err := RequiredCollateral(0.42, 100)
	require.NoError(t, err)
	assert.Equal(t, "42000000", amount.String())

	_, err = RequiredCollateral(0, 100)
	assert.Error(t, err)
}
