// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/ethbridge/vms/bridgevm/config"
)

func TestParseFlags(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configFile, []byte(`{"ethereum":{"mode":"remote","min-confirmations":10}}`), 0o600))

	bridge := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	tests := []struct {
		name        string
		args        []string
		expectedErr error
		check       func(*require.Assertions, *config.Config)
	}{
		{
			name: "defaults",
			check: func(require *require.Assertions, cfg *config.Config) {
				require.Equal(config.Default, *cfg)
			},
		},
		{
			name: "config file",
			args: []string{"--" + ConfigFileKey, configFile},
			check: func(require *require.Assertions, cfg *config.Config) {
				require.Equal(config.Remote, cfg.Ethereum.Mode)
				require.Equal(uint64(10), cfg.Ethereum.MinConfirmations)
			},
		},
		{
			name: "overrides",
			args: []string{
				"--" + ConfigFileKey, configFile,
				"--" + EndpointKey, "http://eth:8545",
				"--" + MinConfirmationsKey, "75",
				"--" + BridgeContractKey, bridge.Hex(),
			},
			check: func(require *require.Assertions, cfg *config.Config) {
				require.Equal("http://eth:8545", cfg.Ethereum.OracleRPCEndpoint)
				require.Equal(uint64(75), cfg.Ethereum.MinConfirmations)
				require.Equal(bridge, cfg.Ethereum.BridgeContract)
				require.Equal(common.Address{}, cfg.Ethereum.GovernanceContract)
			},
		},
		{
			name:        "invalid contract",
			args:        []string{"--" + GovernanceContractKey, "0x1234"},
			expectedErr: errInvalidAddress,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			flags := pflag.NewFlagSet("watch", pflag.ContinueOnError)
			AddFlags(flags)
			cfg, err := ParseFlags(flags, test.args)
			require.ErrorIs(err, test.expectedErr)
			if test.expectedErr != nil {
				return
			}
			test.check(require, cfg)
		})
	}
}
