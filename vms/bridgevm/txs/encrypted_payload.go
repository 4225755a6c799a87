// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	nonceLen = chacha20poly1305.NonceSize
	tagLen   = chacha20poly1305.Overhead

	keyDerivationInfo = "ethbridge-wrapper-payload"
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidKey        = errors.New("invalid encryption key")
)

// EncryptedPayload hides the inner transaction of a wrapper until the block
// after it is committed. The shared secret is exchanged with ML-KEM-768 and
// the plaintext sealed with ChaCha20-Poly1305 under a key derived from it
// with HKDF-SHA256. The encapsulated key is authenticated as associated data.
type EncryptedPayload struct {
	EncapsulatedKey []byte `serialize:"true" json:"encapsulatedKey"`
	Nonce           []byte `serialize:"true" json:"nonce"`
	Ciphertext      []byte `serialize:"true" json:"ciphertext"`
}

// GenerateKey returns a new ML-KEM-768 key pair in its binary encoding.
func GenerateKey() (publicKey []byte, privateKey []byte, err error) {
	pk, sk, err := mlkem768.Scheme().GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	publicKey, err = pk.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	privateKey, err = sk.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	return publicKey, privateKey, nil
}

// Encrypt seals [plaintext] for the holder of the private key of
// [publicKey].
func Encrypt(plaintext []byte, publicKey []byte) (*EncryptedPayload, error) {
	scheme := mlkem768.Scheme()
	if len(publicKey) != scheme.PublicKeySize() {
		return nil, fmt.Errorf("%w: public key length %d", ErrInvalidKey, len(publicKey))
	}
	pk, err := scheme.UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	encapsulatedKey, sharedSecret, err := scheme.Encapsulate(pk)
	if err != nil {
		return nil, fmt.Errorf("ML-KEM encapsulation failed: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("couldn't generate nonce: %w", err)
	}
	aead, err := newAEAD(sharedSecret)
	if err != nil {
		return nil, err
	}
	return &EncryptedPayload{
		EncapsulatedKey: encapsulatedKey,
		Nonce:           nonce,
		Ciphertext:      aead.Seal(nil, nonce, plaintext, encapsulatedKey),
	}, nil
}

// Validate checks the structure of the ciphertext without decrypting it.
func (e *EncryptedPayload) Validate() error {
	switch {
	case len(e.EncapsulatedKey) != mlkem768.Scheme().CiphertextSize():
		return fmt.Errorf("%w: encapsulated key length %d", ErrInvalidCiphertext, len(e.EncapsulatedKey))
	case len(e.Nonce) != nonceLen:
		return fmt.Errorf("%w: nonce length %d", ErrInvalidCiphertext, len(e.Nonce))
	case len(e.Ciphertext) < tagLen:
		return fmt.Errorf("%w: ciphertext too short", ErrInvalidCiphertext)
	default:
		return nil
	}
}

// Decrypt opens the payload with [privateKey].
func (e *EncryptedPayload) Decrypt(privateKey []byte) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	scheme := mlkem768.Scheme()
	sk, err := scheme.UnmarshalBinaryPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	sharedSecret, err := scheme.Decapsulate(sk, e.EncapsulatedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	aead, err := newAEAD(sharedSecret)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, e.Nonce, e.Ciphertext, e.EncapsulatedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

func newAEAD(sharedSecret []byte) (cipher.AEAD, error) {
	kdf := hkdf.New(sha256.New, sharedSecret, nil, []byte(keyDerivationInfo))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := kdf.Read(key); err != nil {
		return nil, fmt.Errorf("couldn't derive payload key: %w", err)
	}
	return chacha20poly1305.New(key)
}
