// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/crypto/bls/signer/localsigner"

	"github.com/luxfi/ethbridge/vms/bridgevm/txs"
)

func TestGenerate(t *testing.T) {
	require := require.New(t)

	keys, err := Generate()
	require.NoError(err)

	signer, err := localsigner.FromBytes(keys.BLSSecretKey)
	require.NoError(err)
	require.Equal([]byte(keys.BLSPublicKey), bls.PublicKeyToCompressedBytes(signer.PublicKey()))
	require.Equal(txs.AddressOf(keys.BLSPublicKey).String(), keys.FeePayer)

	payload, err := txs.Encrypt([]byte("inner"), keys.EncryptionKey)
	require.NoError(err)
	plaintext, err := payload.Decrypt(keys.DecryptionKey)
	require.NoError(err)
	require.Equal([]byte("inner"), plaintext)
}

func TestWriteRead(t *testing.T) {
	require := require.New(t)

	keys, err := Generate()
	require.NoError(err)

	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(Write(path, keys))

	info, err := os.Stat(path)
	require.NoError(err)
	require.Equal(os.FileMode(0o600), info.Mode().Perm())

	read, err := Read(path)
	require.NoError(err)
	require.Equal(keys, read)
}
