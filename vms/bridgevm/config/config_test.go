// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/geth/common"
)

func TestGetConfig(t *testing.T) {
	tests := []struct {
		name        string
		givenJSON   []byte
		expected    func(*testing.T) Config
		expectedErr error
	}{
		{
			name:      "default",
			givenJSON: []byte(`{}`),
			expected: func(*testing.T) Config {
				return Default
			},
		},
		{
			name:      "empty",
			givenJSON: nil,
			expected: func(*testing.T) Config {
				return Default
			},
		},
		{
			name: "ethereum overrides",
			givenJSON: []byte(`{
				"ethereum": {
					"mode": "remote",
					"oracle-rpc-endpoint": "http://eth:8545",
					"poll-interval": 2000000000,
					"bridge-contract": "0x1111111111111111111111111111111111111111"
				}
			}`),
			expected: func(*testing.T) Config {
				c := Default
				c.Ethereum.Mode = Remote
				c.Ethereum.OracleRPCEndpoint = "http://eth:8545"
				c.Ethereum.PollInterval = 2 * time.Second
				c.Ethereum.BridgeContract = common.HexToAddress("0x1111111111111111111111111111111111111111")
				return c
			},
		},
		{
			name:      "oracle off without endpoint",
			givenJSON: []byte(`{"ethereum": {"mode": "off", "oracle-rpc-endpoint": ""}}`),
			expected: func(*testing.T) Config {
				c := Default
				c.Ethereum.Mode = Off
				c.Ethereum.OracleRPCEndpoint = ""
				return c
			},
		},
		{
			name:        "unknown mode",
			givenJSON:   []byte(`{"ethereum": {"mode": "local"}}`),
			expectedErr: ErrUnknownMode,
		},
		{
			name:        "zero epoch length",
			givenJSON:   []byte(`{"blocks-per-epoch": 0}`),
			expectedErr: ErrZeroBlocksPerEpoch,
		},
		{
			name:        "remote without endpoint",
			givenJSON:   []byte(`{"ethereum": {"mode": "remote", "oracle-rpc-endpoint": ""}}`),
			expectedErr: ErrMissingOracleEndpoint,
		},
		{
			name:        "zero confirmations",
			givenJSON:   []byte(`{"ethereum": {"min-confirmations": 0}}`),
			expectedErr: ErrZeroMinConfirmations,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			c, err := GetConfig(test.givenJSON)
			require.ErrorIs(err, test.expectedErr)
			if test.expectedErr != nil {
				return
			}
			require.Equal(test.expected(t), *c)
		})
	}
}

func TestModePollsNode(t *testing.T) {
	require := require.New(t)

	require.True(Managed.PollsNode())
	require.True(Remote.PollsNode())
	require.False(EventsEndpoint.PollsNode())
	require.False(Off.PollsNode())
}
