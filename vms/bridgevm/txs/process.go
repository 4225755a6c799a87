// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"errors"
	"fmt"

	"github.com/luxfi/crypto/bls"
)

var (
	ErrUnsigned         = errors.New("Wrapper transactions must be signed")
	ErrInvalidSignature = errors.New("invalid signature")
)

// ProcessTx decodes [b] and verifies the signature of the signed kinds.
func ProcessTx(b []byte) (*Tx, error) {
	tx, err := Parse(b)
	if err != nil {
		return nil, err
	}
	switch utx := tx.Unsigned.(type) {
	case *WrapperTx:
		if err := utx.VerifySignature(); err != nil {
			return nil, err
		}
	case *ProtocolTx:
		if err := utx.VerifySignature(); err != nil {
			return nil, err
		}
	}
	return tx, nil
}

func verify(publicKey, signature, msg []byte) error {
	pk, err := bls.PublicKeyFromCompressedBytes(publicKey)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	sig, err := bls.SignatureFromBytes(signature)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if !bls.Verify(pk, sig, msg) {
		return ErrInvalidSignature
	}
	return nil
}
