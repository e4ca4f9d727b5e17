package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps go-ethereum RPC and provides helper methods. Live log
// subscriptions require a websocket endpoint.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// SubscribeLogs opens a live log subscription filtered by contract address
// and topic0, delivering matching logs to sink in provider order. The
// subscription has no resume cursor: logs emitted while no subscription is
// open are not redelivered.
func (c *Client) SubscribeLogs(
	ctx context.Context,
	contract common.Address,
	topic0 common.Hash,
	sink chan<- types.Log,
) (ethereum.Subscription, error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{contract},
		Topics:    [][]common.Hash{{topic0}},
	}
	return c.ethClient.SubscribeFilterLogs(ctx, query, sink)
}
