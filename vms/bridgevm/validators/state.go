// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package validators

import (
	"errors"
	"fmt"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"

	"github.com/luxfi/ethbridge/vms/bridgevm/votingpower"
)

//go:generate go run go.uber.org/mock/mockgen -package=${GOPACKAGE}mock -destination=${GOPACKAGE}mock/state.go -mock_names=State=State . State

var (
	ErrUnknownValidator = errors.New("unknown validator")
	ErrUnknownEpoch     = errors.New("unknown epoch")
	ErrNoStake          = errors.New("epoch has no stake")
)

// Validator is a member of the active set of an epoch.
type Validator struct {
	NodeID    ids.NodeID
	Stake     uint64
	PublicKey *bls.PublicKey
}

// State answers questions about the bonded validator set of committed state.
type State interface {
	// GetEpoch returns the epoch that contains block [height].
	GetEpoch(height uint64) (uint64, error)
	// GetActiveValidators returns the active set of [epoch] sorted by NodeID.
	GetActiveValidators(epoch uint64) ([]Validator, error)
	// GetTotalVotingPower returns the sum of the active stake of [epoch].
	GetTotalVotingPower(epoch uint64) (uint64, error)
	// GetValidatorPublicKey returns ErrUnknownValidator if [nodeID] is not
	// active in [epoch].
	GetValidatorPublicKey(nodeID ids.NodeID, epoch uint64) (*bls.PublicKey, error)
}

// VotingPower returns the share of the stake of the epoch containing
// [height] that [nodeID] holds.
func VotingPower(s State, nodeID ids.NodeID, height uint64) (votingpower.FractionalVotingPower, error) {
	epoch, err := s.GetEpoch(height)
	if err != nil {
		return votingpower.FractionalVotingPower{}, err
	}
	return EpochVotingPower(s, nodeID, epoch)
}

// EpochVotingPower returns the share of the stake of [epoch] that [nodeID]
// holds.
func EpochVotingPower(s State, nodeID ids.NodeID, epoch uint64) (votingpower.FractionalVotingPower, error) {
	active, err := s.GetActiveValidators(epoch)
	if err != nil {
		return votingpower.FractionalVotingPower{}, err
	}
	total, err := s.GetTotalVotingPower(epoch)
	if err != nil {
		return votingpower.FractionalVotingPower{}, err
	}
	if total == 0 {
		return votingpower.FractionalVotingPower{}, fmt.Errorf("%w: %d", ErrNoStake, epoch)
	}
	for _, v := range active {
		if v.NodeID == nodeID {
			return votingpower.FromStake(v.Stake, total)
		}
	}
	return votingpower.FractionalVotingPower{}, fmt.Errorf("%w: %s in epoch %d", ErrUnknownValidator, nodeID, epoch)
}
