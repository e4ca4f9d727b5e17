package netflow

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"netflowMonitor/internal/model"
	"netflowMonitor/internal/registry"
)

var (
	monitored   = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	outsiderOne = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	outsiderTwo = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

func binanceRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New("binance", []string{monitored.Hex()})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func transfer(from, to common.Address, amount int64) model.TransferEvent {
	return model.TransferEvent{From: from, To: to, Amount: big.NewInt(amount)}
}

func TestClassifyInflow(t *testing.T) {
	flow := Classify(transfer(outsiderOne, monitored, 1000), binanceRegistry(t))

	if flow.Exchange != "binance" {
		t.Fatalf("exchange mismatch: %s", flow.Exchange)
	}
	if flow.Inflow.String() != "1000" || flow.Outflow.Sign() != 0 {
		t.Fatalf("expected pure inflow, got in=%s out=%s", flow.Inflow, flow.Outflow)
	}
	if flow.IsZero() {
		t.Fatalf("inflow must not be zero-classified")
	}
}

func TestClassifyOutflow(t *testing.T) {
	flow := Classify(transfer(monitored, outsiderTwo, 200), binanceRegistry(t))

	if flow.Outflow.String() != "200" || flow.Inflow.Sign() != 0 {
		t.Fatalf("expected pure outflow, got in=%s out=%s", flow.Inflow, flow.Outflow)
	}
}

func TestClassifyIrrelevant(t *testing.T) {
	flow := Classify(transfer(outsiderOne, outsiderTwo, 5000), binanceRegistry(t))

	if !flow.IsZero() {
		t.Fatalf("expected zero flow, got in=%s out=%s", flow.Inflow, flow.Outflow)
	}
}

func TestClassifySelfTransferInflowWins(t *testing.T) {
	flow := Classify(transfer(monitored, monitored, 77), binanceRegistry(t))

	if flow.Inflow.String() != "77" || flow.Outflow.Sign() != 0 {
		t.Fatalf("recipient side must win: in=%s out=%s", flow.Inflow, flow.Outflow)
	}
}

func TestClassifyDoesNotAliasAmount(t *testing.T) {
	event := transfer(outsiderOne, monitored, 42)
	flow := Classify(event, binanceRegistry(t))

	event.Amount.SetInt64(0)
	if flow.Inflow.String() != "42" {
		t.Fatalf("classified flow must not share the event amount")
	}
}

func TestNextCumulativeRunningSum(t *testing.T) {
	type delta struct {
		inflow  int64
		outflow int64
	}
	deltas := []delta{
		{1000, 0},
		{0, 200},
		{1, 0},
		{0, 1},
		{500, 0},
	}

	cumulative := (*big.Int)(nil)
	expected := int64(0)
	for _, d := range deltas {
		cumulative = NextCumulative(cumulative, big.NewInt(d.inflow), big.NewInt(d.outflow))
		expected += d.inflow - d.outflow
		if cumulative.Int64() != expected {
			t.Fatalf("cumulative mismatch: got %s want %d", cumulative, expected)
		}
	}
}

func TestNextCumulativeLargeValues(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 200)

	cumulative := NextCumulative(nil, huge, nil)
	if cumulative.Cmp(huge) != 0 {
		t.Fatalf("first snapshot mismatch: %s", cumulative)
	}

	cumulative = NextCumulative(cumulative, nil, huge)
	if cumulative.Sign() != 0 {
		t.Fatalf("expected zero after equal outflow, got %s", cumulative)
	}

	// Inputs must stay untouched.
	if huge.Cmp(new(big.Int).Lsh(big.NewInt(1), 200)) != 0 {
		t.Fatalf("argument mutated: %s", huge)
	}
}
