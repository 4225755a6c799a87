// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	require := require.New(t)

	pk, sk, err := GenerateKey()
	require.NoError(err)

	payload, err := Encrypt([]byte("secret"), pk)
	require.NoError(err)
	require.NoError(payload.Validate())

	plaintext, err := payload.Decrypt(sk)
	require.NoError(err)
	require.Equal([]byte("secret"), plaintext)

	_, otherSK, err := GenerateKey()
	require.NoError(err)
	_, err = payload.Decrypt(otherSK)
	require.ErrorIs(err, ErrDecryptionFailed)
}

func TestEncryptInvalidKey(t *testing.T) {
	_, err := Encrypt([]byte("secret"), []byte{0x01})
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestEncryptedPayloadValidate(t *testing.T) {
	pk, _, err := GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name   string
		modify func(*EncryptedPayload)
	}{
		{
			name: "short encapsulated key",
			modify: func(e *EncryptedPayload) {
				e.EncapsulatedKey = e.EncapsulatedKey[1:]
			},
		},
		{
			name: "wrong nonce length",
			modify: func(e *EncryptedPayload) {
				e.Nonce = append(e.Nonce, 0x00)
			},
		},
		{
			name: "missing tag",
			modify: func(e *EncryptedPayload) {
				e.Ciphertext = e.Ciphertext[:tagLen-1]
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			payload, err := Encrypt([]byte("secret"), pk)
			require.NoError(err)
			test.modify(payload)
			require.ErrorIs(payload.Validate(), ErrInvalidCiphertext)
		})
	}
}
