package erc20

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func topicFromAddress(address common.Address) common.Hash {
	return common.BytesToHash(address.Bytes())
}

func buildTransferLog(t *testing.T, from, to common.Address, amount *big.Int) types.Log {
	t.Helper()

	parsed, err := TransferABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	data, err := parsed.Events["Transfer"].Inputs.NonIndexed().Pack(amount)
	if err != nil {
		t.Fatalf("pack amount: %v", err)
	}

	eventID, err := TransferEventID()
	if err != nil {
		t.Fatalf("event id: %v", err)
	}

	return types.Log{
		Address:     common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Topics:      []common.Hash{eventID, topicFromAddress(from), topicFromAddress(to)},
		Data:        data,
		BlockNumber: 123456,
		TxHash:      common.HexToHash("0xdeadbeef"),
		Index:       7,
	}
}

func TestDecodeTransfer(t *testing.T) {
	from := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	to := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	observedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	event, err := DecodeTransfer(buildTransferLog(t, from, to, big.NewInt(1000)), observedAt)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if event.From != from || event.To != to {
		t.Fatalf("address mismatch: %+v", event)
	}
	if event.Amount.String() != "1000" {
		t.Fatalf("amount mismatch: %s", event.Amount)
	}
	if event.BlockNumber != 123456 || event.LogIndex != 7 {
		t.Fatalf("log position mismatch: %+v", event)
	}
	if !event.ObservedAt.Equal(observedAt) {
		t.Fatalf("observed_at mismatch: %s", event.ObservedAt)
	}
}

func TestDecodeTransferHugeAmount(t *testing.T) {
	// 2^200: exceeds int128, must survive without truncation.
	amount := new(big.Int).Lsh(big.NewInt(1), 200)
	from := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	to := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	event, err := DecodeTransfer(buildTransferLog(t, from, to, amount), time.Now())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Amount.Cmp(amount) != 0 {
		t.Fatalf("amount truncated: %s != %s", event.Amount, amount)
	}
}

func TestDecodeTransferIgnoresTopicPadding(t *testing.T) {
	from := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	to := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	log := buildTransferLog(t, from, to, big.NewInt(1))
	// Dirty the high-order padding bytes; decode must ignore them.
	dirty := log.Topics[1]
	for i := 0; i < 12; i++ {
		dirty[i] = 0xff
	}
	log.Topics[1] = dirty

	event, err := DecodeTransfer(log, time.Now())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.From != from {
		t.Fatalf("padding leaked into address: %s", event.From)
	}
}

func TestDecodeTransferMalformed(t *testing.T) {
	from := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	to := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	valid := buildTransferLog(t, from, to, big.NewInt(1000))

	missingTopics := valid
	missingTopics.Topics = valid.Topics[:2]
	if _, err := DecodeTransfer(missingTopics, time.Now()); err == nil {
		t.Fatalf("expected error for missing topics")
	}

	wrongSignature := valid
	wrongSignature.Topics = []common.Hash{common.HexToHash("0x01"), valid.Topics[1], valid.Topics[2]}
	if _, err := DecodeTransfer(wrongSignature, time.Now()); err == nil {
		t.Fatalf("expected error for unexpected topic0")
	}

	truncatedData := valid
	truncatedData.Data = valid.Data[:8]
	if _, err := DecodeTransfer(truncatedData, time.Now()); err == nil {
		t.Fatalf("expected error for truncated data")
	}

	emptyData := valid
	emptyData.Data = nil
	if _, err := DecodeTransfer(emptyData, time.Now()); err == nil {
		t.Fatalf("expected error for empty data")
	}
}
