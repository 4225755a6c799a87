// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/crypto/bls/signer/localsigner"
	"github.com/luxfi/ids"

	"github.com/luxfi/ethbridge/utils/compression"
	"github.com/luxfi/ethbridge/vms/bridgevm/vext"
)

func newSignedWrapper(t *testing.T, encryptionKey []byte) *WrapperTx {
	require := require.New(t)

	sk, err := localsigner.New()
	require.NoError(err)
	wrapper, err := NewWrapperTx(
		Fee{
			Amount: *uint256.NewInt(10),
			Token:  ids.ShortID{0x01},
		},
		1,
		21_000,
		&InnerTx{Code: []byte("transfer"), Data: []byte{0x01, 0x02}},
		encryptionKey,
	)
	require.NoError(err)
	require.NoError(wrapper.Sign(sk))
	return wrapper
}

func TestProcessTx(t *testing.T) {
	pk, _, err := GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name        string
		unsigned    func() UnsignedTx
		expectedErr error
	}{
		{
			name: "signed wrapper",
			unsigned: func() UnsignedTx {
				return newSignedWrapper(t, pk)
			},
		},
		{
			name: "unsigned wrapper",
			unsigned: func() UnsignedTx {
				wrapper := newSignedWrapper(t, pk)
				wrapper.Signature = nil
				return wrapper
			},
			expectedErr: ErrUnsigned,
		},
		{
			name: "tampered wrapper",
			unsigned: func() UnsignedTx {
				wrapper := newSignedWrapper(t, pk)
				wrapper.GasLimit++
				return wrapper
			},
			expectedErr: ErrInvalidSignature,
		},
		{
			name: "raw",
			unsigned: func() UnsignedTx {
				return &RawTx{Inner: InnerTx{Code: []byte("code")}}
			},
		},
		{
			name: "decrypted",
			unsigned: func() UnsignedTx {
				return &DecryptedTx{Inner: InnerTx{Code: []byte("code")}}
			},
		},
		{
			name: "unsigned protocol tx",
			unsigned: func() UnsignedTx {
				return &ProtocolTx{Payload: &ValidatorSetUpdate{Epoch: 1}}
			},
			expectedErr: ErrUnsigned,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			tx, err := NewTx(test.unsigned())
			require.NoError(err)

			parsed, err := ProcessTx(tx.Bytes())
			require.ErrorIs(err, test.expectedErr)
			if test.expectedErr != nil {
				return
			}
			require.Equal(tx.ID(), parsed.ID())
			require.IsType(test.unsigned(), parsed.Unsigned)
		})
	}
}

func TestProcessTxMalformed(t *testing.T) {
	_, err := ProcessTx([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0xff})
	require.ErrorIs(t, err, ErrDecode)
}

func TestUnsignedMessage(t *testing.T) {
	require.Equal(t, "Wrapper transactions must be signed", ErrUnsigned.Error())
}

func TestFeePayer(t *testing.T) {
	require := require.New(t)

	pk, _, err := GenerateKey()
	require.NoError(err)
	wrapper := newSignedWrapper(t, pk)

	payer := wrapper.FeePayer()
	require.NotEqual(ids.ShortEmpty, payer)
	require.Equal(AddressOf(wrapper.PublicKey), payer)

	other := newSignedWrapper(t, pk)
	require.NotEqual(payer, other.FeePayer())
}

func TestDecryptInner(t *testing.T) {
	require := require.New(t)

	pk, sk, err := GenerateKey()
	require.NoError(err)
	wrapper := newSignedWrapper(t, pk)

	inner, err := wrapper.DecryptInner(sk)
	require.NoError(err)
	require.Equal([]byte("transfer"), inner.Code)

	txHash, err := inner.HashCommitment()
	require.NoError(err)
	require.Equal(wrapper.TxHash, txHash)

	wrapper.TxHash = ids.GenerateTestID()
	_, err = wrapper.DecryptInner(sk)
	require.ErrorIs(err, ErrDecryptionFailed)
}

func TestProtocolTxDigest(t *testing.T) {
	require := require.New(t)

	c, err := compression.NewZstdCompressor(1 << 20)
	require.NoError(err)
	sk, err := localsigner.New()
	require.NoError(err)

	digest := &vext.Digest{
		Signatures: []vext.SignedAddress{{
			Validator: ids.GenerateTestNodeID(),
			Signature: []byte{0x01},
		}},
	}
	payload, err := NewEthereumEventsDigest(c, digest)
	require.NoError(err)

	protocolTx := &ProtocolTx{Payload: payload}
	require.NoError(protocolTx.Sign(sk))
	require.Equal(bls.PublicKeyToCompressedBytes(sk.PublicKey()), protocolTx.PublicKey)

	tx, err := NewTx(protocolTx)
	require.NoError(err)
	parsed, err := ProcessTx(tx.Bytes())
	require.NoError(err)

	parsedPayload, ok := parsed.Unsigned.(*ProtocolTx).Payload.(*EthereumEventsDigest)
	require.True(ok)
	parsedDigest, err := parsedPayload.Digest(c)
	require.NoError(err)
	require.Equal(digest.Signatures, parsedDigest.Signatures)
}
