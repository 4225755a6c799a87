// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"fmt"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"

	"github.com/luxfi/ethbridge/utils/compression"
	"github.com/luxfi/ethbridge/vms/bridgevm/vext"
)

// ProtocolPayload is one of the closed set of messages validators inject
// into blocks.
type ProtocolPayload interface {
	protocolPayload()
}

// ProtocolTx is a message signed by a validator's protocol key.
type ProtocolTx struct {
	PublicKey []byte          `serialize:"true" json:"publicKey"`
	Payload   ProtocolPayload `serialize:"true" json:"payload"`
	Signature []byte          `serialize:"true" json:"signature"`
}

func (tx *ProtocolTx) Visit(v Visitor) error {
	return v.ProtocolTx(tx)
}

func (tx *ProtocolTx) SigningBytes() ([]byte, error) {
	unsigned := *tx
	unsigned.Signature = nil
	return Codec.Marshal(CodecVersion, &unsigned)
}

func (tx *ProtocolTx) Sign(signer bls.Signer) error {
	tx.PublicKey = bls.PublicKeyToCompressedBytes(signer.PublicKey())
	msg, err := tx.SigningBytes()
	if err != nil {
		return err
	}
	sig, err := signer.Sign(msg)
	if err != nil {
		return fmt.Errorf("couldn't sign protocol tx: %w", err)
	}
	tx.Signature = bls.SignatureToBytes(sig)
	return nil
}

func (tx *ProtocolTx) VerifySignature() error {
	if len(tx.Signature) == 0 {
		return ErrUnsigned
	}
	msg, err := tx.SigningBytes()
	if err != nil {
		return err
	}
	return verify(tx.PublicKey, tx.Signature, msg)
}

// EthereumEventsDigest carries the compressed vote extension digest of the
// previous height.
type EthereumEventsDigest struct {
	Compressed []byte `serialize:"true" json:"compressed"`
}

func (*EthereumEventsDigest) protocolPayload() {}

// NewEthereumEventsDigest compresses [d] with [c].
func NewEthereumEventsDigest(c compression.Compressor, d *vext.Digest) (*EthereumEventsDigest, error) {
	b, err := d.Bytes()
	if err != nil {
		return nil, err
	}
	compressed, err := c.Compress(b)
	if err != nil {
		return nil, fmt.Errorf("couldn't compress digest: %w", err)
	}
	return &EthereumEventsDigest{Compressed: compressed}, nil
}

// Digest decompresses and parses the carried digest.
func (p *EthereumEventsDigest) Digest(c compression.Compressor) (*vext.Digest, error) {
	b, err := c.Decompress(p.Compressed)
	if err != nil {
		return nil, fmt.Errorf("couldn't decompress digest: %w", err)
	}
	return vext.ParseDigest(b)
}

// ValidatorUpdate is the stake a validator holds from [ValidatorSetUpdate]'s
// epoch on.
type ValidatorUpdate struct {
	NodeID    ids.NodeID `serialize:"true" json:"nodeID"`
	Stake     uint64     `serialize:"true" json:"stake"`
	PublicKey []byte     `serialize:"true" json:"publicKey"`
}

// ValidatorSetUpdate announces the validator set of a future epoch.
type ValidatorSetUpdate struct {
	Epoch      uint64            `serialize:"true" json:"epoch"`
	Validators []ValidatorUpdate `serialize:"true" json:"validators"`
}

func (*ValidatorSetUpdate) protocolPayload() {}
