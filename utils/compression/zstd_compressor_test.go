// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compression

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZstdCompressorInvalidMaxSize(t *testing.T) {
	for _, size := range []int64{0, -1, math.MaxInt64} {
		_, err := NewZstdCompressor(size)
		require.ErrorIs(t, err, ErrInvalidMaxSizeCompressor)
	}
}

func TestZstdCompressorRoundTrip(t *testing.T) {
	require := require.New(t)

	c, err := NewZstdCompressor(1024)
	require.NoError(err)

	msg := bytes.Repeat([]byte("eth_msgs"), 64)
	compressed, err := c.Compress(msg)
	require.NoError(err)
	require.Less(len(compressed), len(msg))

	decompressed, err := c.Decompress(compressed)
	require.NoError(err)
	require.Equal(msg, decompressed)
}

func TestZstdCompressorSizeLimits(t *testing.T) {
	require := require.New(t)

	small, err := NewZstdCompressor(16)
	require.NoError(err)
	_, err = small.Compress(make([]byte, 17))
	require.ErrorIs(err, ErrMsgTooLarge)

	large, err := NewZstdCompressor(4096)
	require.NoError(err)
	compressed, err := large.Compress(make([]byte, 4096))
	require.NoError(err)

	_, err = small.Decompress(compressed)
	require.Error(err)
}
