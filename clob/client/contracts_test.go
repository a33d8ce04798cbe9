package client

import (
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/betbot/polyorder/clob/types"
)

func TestGetContractConfig(t *testing.T) {
	cfg, err := GetContractConfig(types.ChainPolygon)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.Collateral != PolygonMainnetContracts.Collateral {
		t.Fatalf("collateral = %s", cfg.Collateral)
	}

	if _, err := GetContractConfig(types.Chain(1)); err == nil {
		t.Fatal("expected error for unsupported chain")
	}
}

func TestExchangeSpenders_CoverExchangesAndAdapter(t *testing.T) {
	for _, chain := range []types.Chain{types.ChainPolygon, types.ChainAmoy} {
		cfg, err := GetContractConfig(chain)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}

		spenders := cfg.ExchangeSpenders()
		if len(spenders) != 3 {
			t.Fatalf("spender 数 = %d, want 3", len(spenders))
		}
		addrs := make(map[string]bool, 3)
		for _, s := range spenders {
			addrs[s.Address] = true
		}
		for _, want := range []string{cfg.Exchange, cfg.NegRiskExchange, cfg.NegRiskAdapter} {
			if !addrs[want] {
				t.Fatalf("链 %d 缺少 spender %s", chain, want)
			}
		}

		// ERC1155 operator 授权指向同一组合约
		if !reflect.DeepEqual(cfg.OperatorTargets(), spenders) {
			t.Fatalf("链 %d 的 operator 列表与 spender 列表不一致", chain)
		}
	}
}

func TestNewApprovalService_SpendersFromContractConfig(t *testing.T) {
	s := newTestApprovalService(t, newFakeCaller(t, big.NewInt(0), true), &fakeExecutor{})

	cfg, err := GetContractConfig(types.ChainPolygon)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := cfg.ExchangeSpenders()
	if len(s.spenders) != len(want) {
		t.Fatalf("spender 数 = %d, want %d", len(s.spenders), len(want))
	}
	for i := range want {
		if s.spenders[i].Address != common.HexToAddress(want[i].Address) {
			t.Fatalf("spender[%d] = %s, want %s", i, s.spenders[i].Address.Hex(), want[i].Address)
		}
		if s.spenders[i].Name != want[i].Name {
			t.Fatalf("spender[%d] 名称 = %s, want %s", i, s.spenders[i].Name, want[i].Name)
		}
	}
}
