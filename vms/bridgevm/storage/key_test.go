// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

func TestKeyPushDoesNotAlias(t *testing.T) {
	require := require.New(t)

	root := NewKey("a", "b")
	left := root.Push("left")
	right := root.Push("right")

	require.Equal("a/b", root.String())
	require.Equal("a/b/left", left.String())
	require.Equal("a/b/right", right.String())
	require.True(left.HasPrefix(root))
	require.False(root.HasPrefix(left))
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		input       string
		expectedErr error
	}{
		{input: "#bridge/eth_msgs/ab/seen"},
		{input: "single"},
		{input: "", expectedErr: ErrInvalidKey},
		{input: "a//b", expectedErr: ErrInvalidKey},
		{input: "a/", expectedErr: ErrInvalidKey},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			require := require.New(t)

			k, err := ParseKey(test.input)
			require.ErrorIs(err, test.expectedErr)
			if test.expectedErr == nil {
				require.Equal(test.input, k.String())
			}
		})
	}
}

func TestBridgeKeys(t *testing.T) {
	require := require.New(t)

	asset := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	owner := ids.GenerateTestShortID()

	balance := WrappedBalanceKey(asset, owner)
	supply := WrappedSupplyKey(asset)
	msg := EthMsgPrefix(ids.GenerateTestID())

	require.True(IsBridgeKey(balance))
	require.True(IsBridgeKey(supply))
	require.True(IsBridgeKey(msg))
	require.True(msg.HasPrefix(EthMsgsPrefix()))
	require.NotEqual(balance, supply)

	native := BalanceKey(ids.GenerateTestShortID(), owner)
	require.False(IsBridgeKey(native))
	require.Len(native.Segments(), 3)
}

func TestChangedKeys(t *testing.T) {
	require := require.New(t)

	c := NewChangedKeys(NewKey("b"), NewKey("a"), NewKey("b"))
	require.Equal(2, c.Len())
	require.True(c.Contains(NewKey("a")))
	require.False(c.Contains(NewKey("c")))

	c.Union(NewChangedKeys(NewKey("c"), NewKey("a")))
	c.Union(nil)
	require.Equal([]Key{NewKey("a"), NewKey("b"), NewKey("c")}, c.List())
}
