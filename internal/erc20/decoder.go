package erc20

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"netflowMonitor/internal/model"
)

// transferTopicCount is topic0 plus the two indexed address arguments.
const transferTopicCount = 3

// DecodeTransfer converts a raw Transfer log into a TransferEvent. The from
// and to addresses occupy the low 20 bytes of their 32-byte topic slots; the
// high 12 bytes are padding and are ignored. The amount is the data payload
// interpreted as a big-endian uint256, kept arbitrary-precision.
func DecodeTransfer(log types.Log, observedAt time.Time) (model.TransferEvent, error) {
	eventID, err := TransferEventID()
	if err != nil {
		return model.TransferEvent{}, err
	}

	if len(log.Topics) < transferTopicCount {
		return model.TransferEvent{}, fmt.Errorf("malformed log: expected %d topics, got %d", transferTopicCount, len(log.Topics))
	}
	if log.Topics[0] != eventID {
		return model.TransferEvent{}, fmt.Errorf("malformed log: unexpected topic0 %s", log.Topics[0].Hex())
	}

	amount, err := unpackAmount(log.Data)
	if err != nil {
		return model.TransferEvent{}, fmt.Errorf("malformed log: %w", err)
	}

	return model.TransferEvent{
		From:        common.BytesToAddress(log.Topics[1].Bytes()),
		To:          common.BytesToAddress(log.Topics[2].Bytes()),
		Amount:      amount,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		LogIndex:    uint64(log.Index),
		ObservedAt:  observedAt.UTC(),
	}, nil
}

func unpackAmount(data []byte) (*big.Int, error) {
	parsed, err := TransferABI()
	if err != nil {
		return nil, err
	}

	values, err := parsed.Events["Transfer"].Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack amount: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack amount: expected 1 value, got %d", len(values))
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack amount: unexpected type %T", values[0])
	}
	return amount, nil
}
