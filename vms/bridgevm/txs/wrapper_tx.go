// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/luxfi/crypto"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
)

// Fee is paid by the signer of a wrapper in [Token].
type Fee struct {
	Amount uint256.Int  `serialize:"true" json:"amount"`
	Token  ids.ShortID `serialize:"true" json:"token"`
}

// WrapperTx carries an encrypted transaction together with the fee and gas
// metadata needed to order it before it is revealed.
type WrapperTx struct {
	Fee       Fee              `serialize:"true" json:"fee"`
	PublicKey []byte           `serialize:"true" json:"publicKey"`
	Epoch     uint64           `serialize:"true" json:"epoch"`
	GasLimit  uint64           `serialize:"true" json:"gasLimit"`
	Payload   EncryptedPayload `serialize:"true" json:"payload"`
	// TxHash is the hash commitment of the encrypted inner tx.
	TxHash    ids.ID `serialize:"true" json:"txHash"`
	Signature []byte `serialize:"true" json:"signature"`
}

// NewWrapperTx encrypts [inner] with [encryptionKey] and returns the
// unsigned wrapper.
func NewWrapperTx(
	fee Fee,
	epoch uint64,
	gasLimit uint64,
	inner *InnerTx,
	encryptionKey []byte,
) (*WrapperTx, error) {
	plaintext, err := inner.Bytes()
	if err != nil {
		return nil, err
	}
	txHash, err := inner.HashCommitment()
	if err != nil {
		return nil, err
	}
	payload, err := Encrypt(plaintext, encryptionKey)
	if err != nil {
		return nil, err
	}
	return &WrapperTx{
		Fee:      fee,
		Epoch:    epoch,
		GasLimit: gasLimit,
		Payload:  *payload,
		TxHash:   txHash,
	}, nil
}

func (tx *WrapperTx) Visit(v Visitor) error {
	return v.WrapperTx(tx)
}

// SigningBytes are the bytes of the wrapper without its signature.
func (tx *WrapperTx) SigningBytes() ([]byte, error) {
	unsigned := *tx
	unsigned.Signature = nil
	return Codec.Marshal(CodecVersion, &unsigned)
}

// Sign sets the public key and signature of [tx].
func (tx *WrapperTx) Sign(signer bls.Signer) error {
	tx.PublicKey = bls.PublicKeyToCompressedBytes(signer.PublicKey())
	msg, err := tx.SigningBytes()
	if err != nil {
		return err
	}
	sig, err := signer.Sign(msg)
	if err != nil {
		return fmt.Errorf("couldn't sign wrapper: %w", err)
	}
	tx.Signature = bls.SignatureToBytes(sig)
	return nil
}

// VerifySignature checks the signature of [tx] against its public key.
func (tx *WrapperTx) VerifySignature() error {
	if len(tx.Signature) == 0 {
		return ErrUnsigned
	}
	msg, err := tx.SigningBytes()
	if err != nil {
		return err
	}
	return verify(tx.PublicKey, tx.Signature, msg)
}

// FeePayer is the address of the signer of [tx]: the last 20 bytes of the
// Keccak-256 hash of its compressed public key.
func (tx *WrapperTx) FeePayer() ids.ShortID {
	return AddressOf(tx.PublicKey)
}

// DecryptInner decrypts the payload of [tx] and checks it against the hash
// commitment.
func (tx *WrapperTx) DecryptInner(privateKey []byte) (*InnerTx, error) {
	plaintext, err := tx.Payload.Decrypt(privateKey)
	if err != nil {
		return nil, err
	}
	inner, err := ParseInnerTx(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	txHash, err := inner.HashCommitment()
	if err != nil {
		return nil, err
	}
	if txHash != tx.TxHash {
		return nil, fmt.Errorf("%w: plaintext doesn't match hash commitment", ErrDecryptionFailed)
	}
	return inner, nil
}

// AddressOf derives the account address of a compressed BLS public key.
func AddressOf(publicKey []byte) ids.ShortID {
	h := crypto.Keccak256(publicKey)
	var addr ids.ShortID
	copy(addr[:], h[len(h)-len(addr):])
	return addr
}
