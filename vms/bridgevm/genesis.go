// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	stdjson "encoding/json"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/ids"
	"github.com/luxfi/utils/json"

	"github.com/luxfi/ethbridge/vms/bridgevm/storage"
	"github.com/luxfi/ethbridge/vms/bridgevm/validators"
)

var (
	ErrNoGenesisValidators = errors.New("genesis has no validators")
	ErrZeroGenesisStake    = errors.New("genesis validator has no stake")
)

// GenesisValidator is a member of the epoch 0 active set.
type GenesisValidator struct {
	NodeID ids.NodeID `json:"nodeID"`
	Stake  json.Uint64 `json:"stake"`
	// PublicKey is the compressed BLS public key of the validator.
	PublicKey hexutil.Bytes `json:"publicKey"`
}

// GenesisBalance funds [Owner] with [Amount] of the native [Token].
type GenesisBalance struct {
	Token  ids.ShortID `json:"token"`
	Owner  ids.ShortID `json:"owner"`
	Amount json.Uint64 `json:"amount"`
}

type Genesis struct {
	Validators []GenesisValidator `json:"validators"`
	Balances   []GenesisBalance   `json:"balances"`
}

func ParseGenesis(b []byte) (*Genesis, error) {
	var g Genesis
	if err := stdjson.Unmarshal(b, &g); err != nil {
		return nil, fmt.Errorf("failed to parse genesis: %w", err)
	}
	if len(g.Validators) == 0 {
		return nil, ErrNoGenesisValidators
	}
	return &g, nil
}

func (g *Genesis) Bytes() ([]byte, error) {
	return stdjson.Marshal(g)
}

// ActiveSet returns the validators of epoch 0.
func (g *Genesis) ActiveSet() ([]validators.Validator, error) {
	set := make([]validators.Validator, len(g.Validators))
	for i, v := range g.Validators {
		if v.Stake == 0 {
			return nil, fmt.Errorf("%w: %s", ErrZeroGenesisStake, v.NodeID)
		}
		pk, err := bls.PublicKeyFromCompressedBytes(v.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("invalid public key of %s: %w", v.NodeID, err)
		}
		set[i] = validators.Validator{
			NodeID:    v.NodeID,
			Stake:     uint64(v.Stake),
			PublicKey: pk,
		}
	}
	return set, nil
}

func (g *Genesis) writeBalances(store storage.Storage) error {
	for _, b := range g.Balances {
		key := storage.BalanceKey(b.Token, b.Owner)
		if err := storage.WriteAmount(store, key, uint256.NewInt(uint64(b.Amount))); err != nil {
			return fmt.Errorf("couldn't fund %s: %w", key, err)
		}
	}
	return nil
}
