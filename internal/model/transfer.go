package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TransferEvent is a decoded ERC-20 Transfer log. Amounts are uint256 on chain
// and must stay arbitrary-precision end to end.
type TransferEvent struct {
	From        common.Address
	To          common.Address
	Amount      *big.Int
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint64
	ObservedAt  time.Time
}

// ClassifiedFlow is the result of matching a transfer against one exchange's
// monitored addresses. Exactly one of Inflow/Outflow is non-zero, or both are
// zero when the transfer does not touch the exchange.
type ClassifiedFlow struct {
	Exchange string
	Inflow   *big.Int
	Outflow  *big.Int
}

// IsZero reports whether the flow carries no monitored movement.
func (f ClassifiedFlow) IsZero() bool {
	return (f.Inflow == nil || f.Inflow.Sign() == 0) &&
		(f.Outflow == nil || f.Outflow.Sign() == 0)
}

// TransferRecord is the append-only ledger row for a monitored transfer:
// exactly one row per observed transfer, however many exchange sets it
// touches. Amount is a decimal string to survive values beyond 64-bit width.
type TransferRecord struct {
	BlockNumber uint64    `json:"block_number"`
	TxHash      string    `json:"tx_hash"`
	LogIndex    uint64    `json:"log_index"`
	FromAddress string    `json:"from_address"`
	ToAddress   string    `json:"to_address"`
	Amount      string    `json:"amount"`
	ObservedAt  time.Time `json:"observed_at"`
}
