package erc20

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const transferABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "from", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "value", "type": "uint256"}
    ],
    "name": "Transfer",
    "type": "event"
  }
]`

var (
	transferABI     abi.ABI
	transferABIOnce sync.Once
	transferABIErr  error
)

// TransferABI returns the parsed ERC-20 Transfer event ABI.
func TransferABI() (abi.ABI, error) {
	transferABIOnce.Do(func() {
		transferABI, transferABIErr = abi.JSON(strings.NewReader(transferABIJSON))
	})
	return transferABI, transferABIErr
}

// TransferEventID returns keccak256("Transfer(address,address,uint256)"),
// the topic0 of every ERC-20 Transfer log.
func TransferEventID() (common.Hash, error) {
	parsed, err := TransferABI()
	if err != nil {
		return common.Hash{}, err
	}
	return parsed.Events["Transfer"].ID, nil
}
