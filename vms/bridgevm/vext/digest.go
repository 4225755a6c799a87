// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vext

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/luxfi/ids"

	"github.com/luxfi/ethbridge/vms/bridgevm/ethevents"
	"github.com/luxfi/ethbridge/vms/bridgevm/tally"
)

var (
	ErrHeightMismatch  = errors.New("vote extensions were made at different heights")
	ErrDuplicateSigner = errors.New("duplicate vote extension signer")
)

// SignedAddress is the signature one validator made over its extension.
type SignedAddress struct {
	Validator ids.NodeID `serialize:"true" json:"validator"`
	Signature []byte     `serialize:"true" json:"signature"`
}

// Digest is the compressed form of the vote extensions of one height. Event
// bodies are stored once, with the set of validators that reported them.
type Digest struct {
	Signatures []SignedAddress              `serialize:"true" json:"signatures"`
	Events     []ethevents.MultiSignedEvent `serialize:"true" json:"events"`
}

// Compress builds the digest of [exts], which must all be at the same height
// and from distinct validators.
func Compress(exts []*Signed) (*Digest, error) {
	d := &Digest{
		Signatures: make([]SignedAddress, 0, len(exts)),
	}
	if len(exts) == 0 {
		return d, nil
	}

	var (
		height  = exts[0].Extension.BlockHeight
		signers = make(map[ids.NodeID]struct{}, len(exts))
		bodies  = make(map[ids.ID]ethevents.Event)
		votes   = make(map[ids.ID][]tally.Vote)
	)
	for _, ext := range exts {
		if ext.Extension.BlockHeight != height {
			return nil, fmt.Errorf("%w: %d != %d", ErrHeightMismatch, ext.Extension.BlockHeight, height)
		}
		validator := ext.Extension.Validator
		if _, ok := signers[validator]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSigner, validator)
		}
		signers[validator] = struct{}{}

		d.Signatures = append(d.Signatures, SignedAddress{
			Validator: validator,
			Signature: ext.Signature,
		})
		for _, e := range ext.Extension.Events {
			h, err := e.Hash()
			if err != nil {
				return nil, err
			}
			bodies[h] = e
			votes[h] = append(votes[h], tally.Vote{
				Validator: validator,
				Height:    height,
			})
		}
	}

	slices.SortFunc(d.Signatures, func(a, b SignedAddress) int {
		return bytes.Compare(a.Validator[:], b.Validator[:])
	})

	hashes := make([]ids.ID, 0, len(bodies))
	for h := range bodies {
		hashes = append(hashes, h)
	}
	slices.SortFunc(hashes, func(a, b ids.ID) int {
		return bytes.Compare(a[:], b[:])
	})
	d.Events = make([]ethevents.MultiSignedEvent, len(hashes))
	for i, h := range hashes {
		signersOfEvent := votes[h]
		slices.SortFunc(signersOfEvent, tally.Vote.Compare)
		d.Events[i] = ethevents.MultiSignedEvent{
			Event:   bodies[h],
			Signers: signersOfEvent,
		}
	}
	return d, nil
}

// Decompress expands [d] back into one signed extension per signer, each
// claiming to have been made at [lastHeight].
func (d *Digest) Decompress(lastHeight uint64) []*Signed {
	exts := make([]*Signed, 0, len(d.Signatures))
	for _, sig := range d.Signatures {
		ext := VoteExtension{
			BlockHeight: lastHeight,
			Events:      []ethevents.Event{},
			Validator:   sig.Validator,
		}
		for _, e := range d.Events {
			if slices.ContainsFunc(e.Signers, func(v tally.Vote) bool {
				return v.Validator == sig.Validator
			}) {
				ext.Events = append(ext.Events, e.Event)
			}
		}
		exts = append(exts, &Signed{
			Extension: ext,
			Signature: sig.Signature,
		})
	}
	return exts
}

func (d *Digest) Bytes() ([]byte, error) {
	return Codec.Marshal(CodecVersion, d)
}

// ParseDigest is the inverse of Digest.Bytes.
func ParseDigest(b []byte) (*Digest, error) {
	d := &Digest{}
	if _, err := Codec.Unmarshal(b, d); err != nil {
		return nil, err
	}
	return d, nil
}
