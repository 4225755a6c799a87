// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vext

import (
	"errors"
	"fmt"

	"github.com/luxfi/ids"

	"github.com/luxfi/ethbridge/vms/bridgevm/validators"
	"github.com/luxfi/ethbridge/vms/bridgevm/votingpower"
)

var ErrUnexpectedHeight = errors.New("unexpected vote extension height")

// Validated is a vote extension that passed Validate, with the voting power
// of its validator.
type Validated struct {
	Signed      *Signed
	VotingPower votingpower.FractionalVotingPower
}

// Validate checks that [signed] was made by a validator active at its
// height, that the signature is valid and that it was made for
// [expectedHeight]. Any failure rejects the whole extension.
//
// An old extension with a valid signature is rejected by the height check.
func Validate(
	vals validators.State,
	signed *Signed,
	expectedHeight uint64,
) (votingpower.FractionalVotingPower, error) {
	ext := &signed.Extension
	epoch, err := vals.GetEpoch(ext.BlockHeight)
	if err != nil {
		return votingpower.FractionalVotingPower{}, fmt.Errorf("couldn't get epoch of height %d: %w", ext.BlockHeight, err)
	}
	pk, err := vals.GetValidatorPublicKey(ext.Validator, epoch)
	if err != nil {
		return votingpower.FractionalVotingPower{}, fmt.Errorf("couldn't get public key of %s: %w", ext.Validator, err)
	}
	if pk == nil {
		return votingpower.FractionalVotingPower{}, fmt.Errorf("%w: %s has no public key", validators.ErrUnknownValidator, ext.Validator)
	}
	if err := signed.Verify(pk); err != nil {
		return votingpower.FractionalVotingPower{}, err
	}
	if ext.BlockHeight != expectedHeight {
		return votingpower.FractionalVotingPower{}, fmt.Errorf("%w: expected %d but got %d", ErrUnexpectedHeight, expectedHeight, ext.BlockHeight)
	}
	if err := ext.Verify(); err != nil {
		return votingpower.FractionalVotingPower{}, err
	}
	return validators.EpochVotingPower(vals, ext.Validator, epoch)
}

// ValidateList validates every extension of [list]. Extensions that fail are
// reported in [errs] and left out of [valid]. Only the first valid extension
// of a validator is kept, later ones fail with ErrDuplicateSigner.
func ValidateList(
	vals validators.State,
	list []*Signed,
	expectedHeight uint64,
) (valid []Validated, errs []error) {
	signers := make(map[ids.NodeID]struct{}, len(list))
	for _, signed := range list {
		validator := signed.Extension.Validator
		power, err := Validate(vals, signed, expectedHeight)
		if err == nil {
			if _, ok := signers[validator]; ok {
				err = ErrDuplicateSigner
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("vote extension of %s: %w", validator, err))
			continue
		}
		signers[validator] = struct{}{}
		valid = append(valid, Validated{
			Signed:      signed,
			VotingPower: power,
		})
	}
	return valid, errs
}
