// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package keys

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/crypto/bls/signer/localsigner"
	"github.com/luxfi/geth/common/hexutil"

	"github.com/luxfi/ethbridge/vms/bridgevm/txs"
)

type Keys struct {
	// BLSPublicKey is the compressed validator key a genesis entry needs.
	BLSPublicKey hexutil.Bytes `json:"blsPublicKey"`
	BLSSecretKey hexutil.Bytes `json:"blsSecretKey"`
	FeePayer     string        `json:"feePayer"`
	// EncryptionKey is the ML-KEM key wrapper payloads are encrypted to.
	EncryptionKey hexutil.Bytes `json:"encryptionKey"`
	DecryptionKey hexutil.Bytes `json:"decryptionKey"`
}

const OutputKey = "output"

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "keys",
		Short: "Generates a validator signing key and a wrapper encryption key",
		RunE:  keysFunc,
	}
	c.Flags().String(OutputKey, "", "File to write the keys to. Printed to stdout if unset")
	return c
}

func keysFunc(c *cobra.Command, _ []string) error {
	output, err := c.Flags().GetString(OutputKey)
	if err != nil {
		return err
	}
	keys, err := Generate()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}
	if output == "" {
		_, err := fmt.Fprintln(os.Stdout, string(b))
		return err
	}
	return Write(output, keys)
}

// Write stores [keys] at [path]. The file is replaced atomically and only
// readable by its owner.
func Write(path string, keys *Keys) error {
	b, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, b, 0o600)
}

func Read(path string) (*Keys, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var keys Keys
	if err := json.Unmarshal(b, &keys); err != nil {
		return nil, fmt.Errorf("couldn't parse %s: %w", path, err)
	}
	return &keys, nil
}

func Generate() (*Keys, error) {
	sk, err := bls.NewSecretKey()
	if err != nil {
		return nil, err
	}
	skBytes := bls.SecretKeyToBytes(sk)
	signer, err := localsigner.FromBytes(skBytes)
	if err != nil {
		return nil, err
	}
	encryptionKey, decryptionKey, err := txs.GenerateKey()
	if err != nil {
		return nil, err
	}
	pk := bls.PublicKeyToCompressedBytes(signer.PublicKey())
	return &Keys{
		BLSPublicKey:  pk,
		BLSSecretKey:  skBytes,
		FeePayer:      txs.AddressOf(pk).String(),
		EncryptionKey: encryptionKey,
		DecryptionKey: decryptionKey,
	}, nil
}
