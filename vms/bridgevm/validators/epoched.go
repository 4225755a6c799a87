// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package validators

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"

	safemath "github.com/luxfi/ethbridge/utils/math"
)

var (
	_ State = (*Epoched)(nil)

	ErrZeroEpochLength  = errors.New("epoch length can't be zero")
	ErrDuplicateNodeID  = errors.New("duplicate node ID")
	ErrMissingPublicKey = errors.New("missing public key")
)

// Epoched is an in-memory State. The set registered for an epoch stays
// active in every later epoch until another set is registered.
type Epoched struct {
	blocksPerEpoch uint64

	lock sync.RWMutex
	// epochs is sorted in ascending order.
	epochs []uint64
	sets   map[uint64]*epochSet
}

type epochSet struct {
	validators []Validator
	total      uint64
}

func NewEpoched(blocksPerEpoch uint64) (*Epoched, error) {
	if blocksPerEpoch == 0 {
		return nil, ErrZeroEpochLength
	}
	return &Epoched{
		blocksPerEpoch: blocksPerEpoch,
		sets:           make(map[uint64]*epochSet),
	}, nil
}

// SetValidators makes [validators] the active set from [epoch] onwards.
func (e *Epoched) SetValidators(epoch uint64, validators []Validator) error {
	sorted := slices.Clone(validators)
	slices.SortFunc(sorted, func(a, b Validator) int {
		return bytes.Compare(a.NodeID[:], b.NodeID[:])
	})

	stakes := make([]uint64, len(sorted))
	for i, v := range sorted {
		if i > 0 && sorted[i-1].NodeID == v.NodeID {
			return fmt.Errorf("%w: %s", ErrDuplicateNodeID, v.NodeID)
		}
		if v.PublicKey == nil {
			return fmt.Errorf("%w: %s", ErrMissingPublicKey, v.NodeID)
		}
		stakes[i] = v.Stake
	}
	total, err := safemath.Sum(stakes...)
	if err != nil {
		return fmt.Errorf("couldn't sum the stake of epoch %d: %w", epoch, err)
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if _, ok := e.sets[epoch]; !ok {
		i, _ := slices.BinarySearch(e.epochs, epoch)
		e.epochs = slices.Insert(e.epochs, i, epoch)
	}
	e.sets[epoch] = &epochSet{
		validators: sorted,
		total:      total,
	}
	return nil
}

func (e *Epoched) GetEpoch(height uint64) (uint64, error) {
	return height / e.blocksPerEpoch, nil
}

func (e *Epoched) GetActiveValidators(epoch uint64) ([]Validator, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	set, err := e.set(epoch)
	if err != nil {
		return nil, err
	}
	return slices.Clone(set.validators), nil
}

func (e *Epoched) GetTotalVotingPower(epoch uint64) (uint64, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	set, err := e.set(epoch)
	if err != nil {
		return 0, err
	}
	return set.total, nil
}

func (e *Epoched) GetValidatorPublicKey(nodeID ids.NodeID, epoch uint64) (*bls.PublicKey, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	set, err := e.set(epoch)
	if err != nil {
		return nil, err
	}
	i, found := slices.BinarySearchFunc(set.validators, nodeID, func(v Validator, target ids.NodeID) int {
		return bytes.Compare(v.NodeID[:], target[:])
	})
	if !found {
		return nil, fmt.Errorf("%w: %s in epoch %d", ErrUnknownValidator, nodeID, epoch)
	}
	return set.validators[i].PublicKey, nil
}

// set must be called with the lock held.
func (e *Epoched) set(epoch uint64) (*epochSet, error) {
	i, found := slices.BinarySearch(e.epochs, epoch)
	switch {
	case found:
		return e.sets[epoch], nil
	case i == 0:
		return nil, fmt.Errorf("%w: %d", ErrUnknownEpoch, epoch)
	default:
		return e.sets[e.epochs[i-1]], nil
	}
}
