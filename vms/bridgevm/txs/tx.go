// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"errors"
	"fmt"

	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/ids"
)

var ErrDecode = errors.New("couldn't decode transaction")

// UnsignedTx is one of the closed set of transaction kinds a block may
// carry.
type UnsignedTx interface {
	// Visit calls [visitor] with this transaction's concrete type
	Visit(visitor Visitor) error
}

// Tx is the envelope every transaction in a block is serialized in.
type Tx struct {
	Unsigned UnsignedTx `serialize:"true" json:"unsignedTx"`

	id    ids.ID
	bytes []byte
}

// NewTx wraps [unsigned] and computes its bytes and ID.
func NewTx(unsigned UnsignedTx) (*Tx, error) {
	tx := &Tx{Unsigned: unsigned}
	b, err := Codec.Marshal(CodecVersion, tx)
	if err != nil {
		return nil, fmt.Errorf("couldn't marshal tx: %w", err)
	}
	tx.setBytes(b)
	return tx, nil
}

// Parse decodes a transaction from [b].
func Parse(b []byte) (*Tx, error) {
	tx := &Tx{}
	if _, err := Codec.Unmarshal(b, tx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if tx.Unsigned == nil {
		return nil, fmt.Errorf("%w: missing transaction body", ErrDecode)
	}
	tx.setBytes(b)
	return tx, nil
}

func (tx *Tx) setBytes(b []byte) {
	tx.bytes = b
	tx.id = hash.ComputeHash256Array(b)
}

func (tx *Tx) ID() ids.ID {
	return tx.id
}

func (tx *Tx) Bytes() []byte {
	return tx.bytes
}
