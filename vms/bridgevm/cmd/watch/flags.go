// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package watch

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/ethbridge/vms/bridgevm/config"
)

const (
	ConfigFileKey         = "config-file"
	EndpointKey           = "endpoint"
	MinConfirmationsKey   = "min-confirmations"
	BridgeContractKey     = "bridge-contract"
	GovernanceContractKey = "governance-contract"
)

var errInvalidAddress = errors.New("invalid address")

func AddFlags(flags *pflag.FlagSet) {
	flags.String(ConfigFileKey, "", "Path to the JSON bridge config. Defaults are used if unset")
	flags.String(EndpointKey, "", "Ethereum RPC endpoint to poll. Overrides the config file")
	flags.Uint64(MinConfirmationsKey, 0, "Depth an event must reach before it is forwarded. Overrides the config file")
	flags.String(BridgeContractKey, "", "Address of the bridge contract. Overrides the config file")
	flags.String(GovernanceContractKey, "", "Address of the governance contract. Overrides the config file")
}

func ParseFlags(flags *pflag.FlagSet, args []string) (*config.Config, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	configFile, err := flags.GetString(ConfigFileKey)
	if err != nil {
		return nil, err
	}
	var configBytes []byte
	if configFile != "" {
		configBytes, err = os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("couldn't read %s: %w", configFile, err)
		}
	}
	cfg, err := config.GetConfig(configBytes)
	if err != nil {
		return nil, err
	}

	endpoint, err := flags.GetString(EndpointKey)
	if err != nil {
		return nil, err
	}
	if endpoint != "" {
		cfg.Ethereum.OracleRPCEndpoint = endpoint
	}

	minConfirmations, err := flags.GetUint64(MinConfirmationsKey)
	if err != nil {
		return nil, err
	}
	if minConfirmations != 0 {
		cfg.Ethereum.MinConfirmations = minConfirmations
	}

	for key, addr := range map[string]*common.Address{
		BridgeContractKey:     &cfg.Ethereum.BridgeContract,
		GovernanceContractKey: &cfg.Ethereum.GovernanceContract,
	} {
		s, err := flags.GetString(key)
		if err != nil {
			return nil, err
		}
		if s == "" {
			continue
		}
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("%w for %s: %q", errInvalidAddress, key, s)
		}
		*addr = common.HexToAddress(s)
	}
	return cfg, cfg.Verify()
}
