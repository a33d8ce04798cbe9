package client

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/betbot/polyorder/clob/signing"
)

// RelayExecutor executes transactions through a relay service on behalf of a
// proxy wallet. The EOA never pays gas directly: it signs the relay digest and
// the relayer executes the call from the proxy contract.
//
// Flow: submit intent -> sign returned digest -> upload signature -> poll state.
type RelayExecutor struct {
	rc     *resty.Client
	wallet *signing.Wallet
	proxy  common.Address

	pollInterval time.Duration
	waitTimeout  time.Duration
}

// relay transaction lifecycle states
const (
	relayStateNew       = "STATE_NEW"
	relayStateExecuted  = "STATE_EXECUTED"
	relayStateMined     = "STATE_MINED"
	relayStateConfirmed = "STATE_CONFIRMED"
	relayStateFailed    = "STATE_FAILED"
)

type relayIntentRequest struct {
	From  string `json:"from"`
	Proxy string `json:"proxyWallet"`
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

type relayIntentResponse struct {
	TransactionID string `json:"transactionID"`
	Digest        string `json:"digest"`
}

type relaySignatureRequest struct {
	TransactionID string `json:"transactionID"`
	Signature     string `json:"signature"`
}

type relayStateResponse struct {
	TransactionID   string `json:"transactionID"`
	State           string `json:"state"`
	TransactionHash string `json:"transactionHash"`
	Error           string `json:"error"`
}

// NewRelayExecutor creates an executor that routes writes through relayHost.
// proxy is the funder contract the relayer acts for.
func NewRelayExecutor(relayHost string, wallet *signing.Wallet, proxy common.Address) *RelayExecutor {
	relayHost = strings.TrimSuffix(relayHost, "/")
	return &RelayExecutor{
		rc: resty.New().
			SetBaseURL(relayHost).
			SetTimeout(15 * time.Second).
			SetHeader("Content-Type", "application/json"),
		wallet:       wallet,
		proxy:        proxy,
		pollInterval: 2 * time.Second,
		waitTimeout:  2 * time.Minute,
	}
}

// Execute submits the call as a relay intent and blocks until the relayer
// reports it mined. A failed or reverted relay transaction is an error.
func (e *RelayExecutor) Execute(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	if value == nil {
		value = big.NewInt(0)
	}

	var intent relayIntentResponse
	resp, err := e.rc.R().
		SetContext(ctx).
		SetBody(&relayIntentRequest{
			From:  e.wallet.Address().Hex(),
			Proxy: e.proxy.Hex(),
			To:    to.Hex(),
			Data:  hexutil.Encode(data),
			Value: value.String(),
		}).
		SetResult(&intent).
		Post("/transaction")
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "submit relay intent")
	}
	if resp.IsError() {
		return common.Hash{}, errors.Errorf("relay intent rejected: HTTP %d: %s", resp.StatusCode(), resp.String())
	}

	digest, err := hexutil.Decode(intent.Digest)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "decode relay digest")
	}
	sig, err := e.wallet.SignDigest(digest)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "sign relay digest")
	}

	resp, err = e.rc.R().
		SetContext(ctx).
		SetBody(&relaySignatureRequest{
			TransactionID: intent.TransactionID,
			Signature:     hexutil.Encode(sig),
		}).
		Post("/transaction/" + intent.TransactionID + "/signature")
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "upload relay signature")
	}
	if resp.IsError() {
		return common.Hash{}, errors.Errorf("relay signature rejected: HTTP %d: %s", resp.StatusCode(), resp.String())
	}

	return e.awaitMined(ctx, intent.TransactionID)
}

func (e *RelayExecutor) awaitMined(ctx context.Context, transactionID string) (common.Hash, error) {
	deadline := time.Now().Add(e.waitTimeout)
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		var state relayStateResponse
		resp, err := e.rc.R().
			SetContext(ctx).
			SetResult(&state).
			Get("/transaction/" + transactionID)
		if err == nil && !resp.IsError() {
			switch state.State {
			case relayStateExecuted, relayStateMined, relayStateConfirmed:
				return common.HexToHash(state.TransactionHash), nil
			case relayStateFailed:
				return common.Hash{}, errors.Errorf("relay transaction failed: %s", state.Error)
			}
		}
		if time.Now().After(deadline) {
			return common.Hash{}, errors.Errorf("relay transaction not mined in time: %s", transactionID)
		}
		select {
		case <-ctx.Done():
			return common.Hash{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
