// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tally

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/luxfi/ids"
)

// Vote records that [Validator] attested an item at block [Height].
type Vote struct {
	Validator ids.NodeID `serialize:"true" json:"validator"`
	Height    uint64     `serialize:"true" json:"height"`
}

func (v Vote) Compare(other Vote) int {
	if c := bytes.Compare(v.Validator[:], other.Validator[:]); c != 0 {
		return c
	}
	switch {
	case v.Height < other.Height:
		return -1
	case v.Height > other.Height:
		return 1
	default:
		return 0
	}
}

func (v Vote) String() string {
	return fmt.Sprintf("%s@%d", v.Validator, v.Height)
}

// Votes maps each validator that attested an item to the height it did so.
type Votes map[ids.NodeID]uint64

// List returns the votes sorted by validator.
func (v Votes) List() []Vote {
	list := make([]Vote, 0, len(v))
	for nodeID, height := range v {
		list = append(list, Vote{Validator: nodeID, Height: height})
	}
	slices.SortFunc(list, Vote.Compare)
	return list
}

// Dedupe keeps a single vote per validator: the earliest height it attested.
// The result does not depend on the order of [signers].
func Dedupe(signers []Vote) Votes {
	votes := make(Votes, len(signers))
	for _, s := range signers {
		if height, ok := votes[s.Validator]; ok && height <= s.Height {
			continue
		}
		votes[s.Validator] = s.Height
	}
	return votes
}
