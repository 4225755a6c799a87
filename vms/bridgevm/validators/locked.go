// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package validators

import (
	"sync"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
)

// NewLockedState returns a State that holds [lock] around every call to
// [state].
func NewLockedState(lock sync.Locker, state State) State {
	return &lockedState{
		lock:  lock,
		state: state,
	}
}

type lockedState struct {
	lock  sync.Locker
	state State
}

func (ls *lockedState) GetEpoch(height uint64) (uint64, error) {
	ls.lock.Lock()
	defer ls.lock.Unlock()
	return ls.state.GetEpoch(height)
}

func (ls *lockedState) GetActiveValidators(epoch uint64) ([]Validator, error) {
	ls.lock.Lock()
	defer ls.lock.Unlock()
	return ls.state.GetActiveValidators(epoch)
}

func (ls *lockedState) GetTotalVotingPower(epoch uint64) (uint64, error) {
	ls.lock.Lock()
	defer ls.lock.Unlock()
	return ls.state.GetTotalVotingPower(epoch)
}

func (ls *lockedState) GetValidatorPublicKey(nodeID ids.NodeID, epoch uint64) (*bls.PublicKey, error) {
	ls.lock.Lock()
	defer ls.lock.Unlock()
	return ls.state.GetValidatorPublicKey(nodeID, epoch)
}
