// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"context"
	"fmt"

	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/geth/ethclient"
)

var _ Client = (*ethclient.Client)(nil)

// Client is the subset of an Ethereum JSON-RPC client the oracle polls.
type Client interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Dial connects to the Ethereum node at [endpoint].
func Dial(ctx context.Context, endpoint string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("couldn't dial %s: %w", endpoint, err)
	}
	return client, nil
}
