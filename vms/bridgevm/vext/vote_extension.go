// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vext implements the Ethereum events vote extension validators
// attach to their precommits.
package vext

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"

	"github.com/luxfi/ethbridge/vms/bridgevm/ethevents"
)

var (
	ErrInvalidSignature = errors.New("invalid vote extension signature")
	ErrUnsortedEvents   = errors.New("vote extension events are not sorted by hash")
)

// VoteExtension lists the confirmed Ethereum events [Validator] observed
// before voting on the block at [BlockHeight].
type VoteExtension struct {
	BlockHeight uint64            `serialize:"true" json:"blockHeight"`
	Events      []ethevents.Event `serialize:"true" json:"events"`
	Validator   ids.NodeID        `serialize:"true" json:"validator"`
}

// New returns the extension of [validator] at [height]. Events are
// deduplicated and sorted by hash so that a digest can be expanded back into
// the exact bytes that were signed.
func New(height uint64, validator ids.NodeID, events []ethevents.Event) (*VoteExtension, error) {
	sorted, err := ethevents.SortUnique(events)
	if err != nil {
		return nil, err
	}
	ext := &VoteExtension{
		BlockHeight: height,
		Events:      make([]ethevents.Event, len(sorted)),
		Validator:   validator,
	}
	for i, e := range sorted {
		ext.Events[i] = e.Event
	}
	return ext, nil
}

// Bytes returns the bytes a validator signs.
func (v *VoteExtension) Bytes() ([]byte, error) {
	return Codec.Marshal(CodecVersion, v)
}

// Verify checks that every event is well formed and that events are strictly
// ordered by hash.
func (v *VoteExtension) Verify() error {
	var prev ids.ID
	for i := range v.Events {
		e := &v.Events[i]
		if err := e.Verify(); err != nil {
			return err
		}
		h, err := e.Hash()
		if err != nil {
			return err
		}
		if i > 0 && bytes.Compare(prev[:], h[:]) >= 0 {
			return fmt.Errorf("%w: event %d", ErrUnsortedEvents, i)
		}
		prev = h
	}
	return nil
}

// Signed is a vote extension with the BLS signature of its validator.
type Signed struct {
	Extension VoteExtension `serialize:"true" json:"extension"`
	Signature []byte        `serialize:"true" json:"signature"`
}

// Sign signs [ext] with [signer].
func Sign(signer bls.Signer, ext *VoteExtension) (*Signed, error) {
	msg, err := ext.Bytes()
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("couldn't sign vote extension: %w", err)
	}
	return &Signed{
		Extension: *ext,
		Signature: bls.SignatureToBytes(sig),
	}, nil
}

// Verify checks the signature of [s] against [pk].
func (s *Signed) Verify(pk *bls.PublicKey) error {
	msg, err := s.Extension.Bytes()
	if err != nil {
		return err
	}
	sig, err := bls.SignatureFromBytes(s.Signature)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if !bls.Verify(pk, sig, msg) {
		return ErrInvalidSignature
	}
	return nil
}

func (s *Signed) Bytes() ([]byte, error) {
	return Codec.Marshal(CodecVersion, s)
}

// Parse is the inverse of Signed.Bytes.
func Parse(b []byte) (*Signed, error) {
	s := &Signed{}
	if _, err := Codec.Unmarshal(b, s); err != nil {
		return nil, err
	}
	return s, nil
}
