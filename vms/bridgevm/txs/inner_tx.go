// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"fmt"

	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/ids"
)

// InnerTx is the plaintext a wrapper transaction commits to.
type InnerTx struct {
	Code []byte `serialize:"true" json:"code"`
	Data []byte `serialize:"true" json:"data"`
}

func (tx *InnerTx) Bytes() ([]byte, error) {
	return Codec.Marshal(CodecVersion, tx)
}

// HashCommitment is the hash a wrapper records for its plaintext.
func (tx *InnerTx) HashCommitment() (ids.ID, error) {
	b, err := tx.Bytes()
	if err != nil {
		return ids.Empty, err
	}
	return hash.ComputeHash256Array(b), nil
}

// ParseInnerTx is the inverse of InnerTx.Bytes.
func ParseInnerTx(b []byte) (*InnerTx, error) {
	tx := &InnerTx{}
	if _, err := Codec.Unmarshal(b, tx); err != nil {
		return nil, fmt.Errorf("couldn't parse inner tx: %w", err)
	}
	return tx, nil
}

// RawTx is a plaintext transaction submitted without a wrapper.
type RawTx struct {
	Inner InnerTx `serialize:"true" json:"inner"`
}

func (tx *RawTx) Visit(v Visitor) error {
	return v.RawTx(tx)
}

// DecryptedTx is the revealed plaintext of a wrapper committed in the
// previous block.
type DecryptedTx struct {
	Inner InnerTx `serialize:"true" json:"inner"`
}

func (tx *DecryptedTx) Visit(v Visitor) error {
	return v.DecryptedTx(tx)
}

// UndecryptableTx claims that [Wrapper] could not be decrypted.
type UndecryptableTx struct {
	Wrapper WrapperTx `serialize:"true" json:"wrapper"`
}

func (tx *UndecryptableTx) Visit(v Visitor) error {
	return v.UndecryptableTx(tx)
}
