// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/constants"
	"github.com/luxfi/geth/common"
)

var (
	ErrUnknownMode           = errors.New("unknown ethereum mode")
	ErrZeroBlocksPerEpoch    = errors.New("blocks per epoch must be positive")
	ErrInvalidCacheSize      = errors.New("validator cache size must be positive")
	ErrInvalidMaxDigestSize  = errors.New("max digest size must be positive")
	ErrZeroMinConfirmations  = errors.New("min confirmations must be positive")
	ErrMissingOracleEndpoint = errors.New("oracle rpc endpoint is required")
)

// Mode selects where Ethereum events come from.
type Mode string

const (
	// Managed runs against a node the operator starts alongside the ledger.
	Managed Mode = "managed"
	// Remote polls an already running node.
	Remote Mode = "remote"
	// EventsEndpoint expects events to be pushed to the ledger by an
	// external process.
	EventsEndpoint Mode = "eventsEndpoint"
	// Off disables the bridge oracle.
	Off Mode = "off"
)

func (m Mode) Valid() bool {
	switch m {
	case Managed, Remote, EventsEndpoint, Off:
		return true
	default:
		return false
	}
}

// PollsNode reports whether the oracle polls an Ethereum node in this mode.
func (m Mode) PollsNode() bool {
	return m == Managed || m == Remote
}

func (m *Mode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	mode := Mode(s)
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	*m = mode
	return nil
}

var Default = Config{
	Ethereum: EthereumConfig{
		Mode:              Managed,
		OracleRPCEndpoint: "http://127.0.0.1:8545",
		MinConfirmations:  50,
		PollInterval:      time.Second,
	},
	BlocksPerEpoch:     100,
	ValidatorCacheSize: 64,
	MaxDigestSize:      2 * constants.MiB,
}

type EthereumConfig struct {
	Mode               Mode           `json:"mode"`
	OracleRPCEndpoint  string         `json:"oracle-rpc-endpoint"`
	MinConfirmations   uint64         `json:"min-confirmations"`
	PollInterval       time.Duration  `json:"poll-interval"`
	BridgeContract     common.Address `json:"bridge-contract"`
	GovernanceContract common.Address `json:"governance-contract"`
}

// Config contains all of the user-configurable parameters of the bridge.
type Config struct {
	Ethereum           EthereumConfig `json:"ethereum"`
	BlocksPerEpoch     uint64         `json:"blocks-per-epoch"`
	ValidatorCacheSize int            `json:"validator-cache-size"`
	MaxDigestSize      int            `json:"max-digest-size"`
}

func (c *Config) Verify() error {
	switch {
	case c.BlocksPerEpoch == 0:
		return ErrZeroBlocksPerEpoch
	case c.ValidatorCacheSize <= 0:
		return ErrInvalidCacheSize
	case c.MaxDigestSize <= 0:
		return ErrInvalidMaxDigestSize
	case c.Ethereum.MinConfirmations == 0:
		return ErrZeroMinConfirmations
	case c.Ethereum.Mode.PollsNode() && c.Ethereum.OracleRPCEndpoint == "":
		return ErrMissingOracleEndpoint
	default:
		return nil
	}
}

// GetConfig returns a Config from the provided json encoded bytes. If a
// configuration is not provided in the bytes, the default value is set. If
// empty bytes are provided, the default config is returned.
func GetConfig(b []byte) (*Config, error) {
	ec := Default

	// An empty slice is invalid json, so handle that as a special case.
	if len(b) == 0 {
		return &ec, nil
	}

	if err := json.Unmarshal(b, &ec); err != nil {
		return nil, err
	}
	return &ec, ec.Verify()
}
