// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

const (
	separator = "/"

	bridgeSegment    = "#bridge"
	ethMsgsSegment   = "eth_msgs"
	wrappedSegment   = "erc20"
	balanceSegment   = "balance"
	supplySegment    = "supply"
	tokenPrefixChars = "#"
)

var ErrInvalidKey = errors.New("invalid storage key")

// Key is a hierarchical storage key. Segments are joined with "/".
type Key struct {
	segments []string
}

// NewKey returns the key made of [segments].
func NewKey(segments ...string) Key {
	return Key{segments: append([]string(nil), segments...)}
}

// ParseKey is the inverse of String.
func ParseKey(s string) (Key, error) {
	if s == "" {
		return Key{}, fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	segments := strings.Split(s, separator)
	for _, segment := range segments {
		if segment == "" {
			return Key{}, fmt.Errorf("%w: %q has an empty segment", ErrInvalidKey, s)
		}
	}
	return Key{segments: segments}, nil
}

// Push returns a child of [k]. [k] is not modified.
func (k Key) Push(segment string) Key {
	segments := make([]string, len(k.segments), len(k.segments)+1)
	copy(segments, k.segments)
	return Key{segments: append(segments, segment)}
}

func (k Key) Segments() []string {
	return append([]string(nil), k.segments...)
}

// HasPrefix reports whether every segment of [prefix] leads [k].
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix.segments) > len(k.segments) {
		return false
	}
	for i, segment := range prefix.segments {
		if k.segments[i] != segment {
			return false
		}
	}
	return true
}

func (k Key) IsEmpty() bool {
	return len(k.segments) == 0
}

func (k Key) Less(other Key) bool {
	return k.String() < other.String()
}

func (k Key) Bytes() []byte {
	return []byte(k.String())
}

func (k Key) String() string {
	return strings.Join(k.segments, separator)
}

// BridgePrefix is the root of every key owned by the Ethereum bridge.
func BridgePrefix() Key {
	return NewKey(bridgeSegment)
}

// EthMsgsPrefix is the root of the tallies of Ethereum events.
func EthMsgsPrefix() Key {
	return BridgePrefix().Push(ethMsgsSegment)
}

// EthMsgPrefix is the root of the tally of the event with [eventHash].
func EthMsgPrefix(eventHash ids.ID) Key {
	return EthMsgsPrefix().Push(hex.EncodeToString(eventHash[:]))
}

// WrappedBalanceKey is where the wrapped balance of the ERC20 [asset] held by
// [owner] lives.
func WrappedBalanceKey(asset common.Address, owner ids.ShortID) Key {
	return wrappedAssetPrefix(asset).Push(balanceSegment).Push(owner.Hex())
}

// WrappedSupplyKey is where the minted supply of the ERC20 [asset] lives.
func WrappedSupplyKey(asset common.Address) Key {
	return wrappedAssetPrefix(asset).Push(supplySegment)
}

// BalanceKey is where the balance of the native [token] held by [owner]
// lives.
func BalanceKey(token, owner ids.ShortID) Key {
	return NewKey(tokenPrefixChars + token.Hex()).Push(balanceSegment).Push(owner.Hex())
}

// IsBridgeKey reports whether [k] is owned by the Ethereum bridge.
func IsBridgeKey(k Key) bool {
	return k.HasPrefix(BridgePrefix())
}

func wrappedAssetPrefix(asset common.Address) Key {
	return BridgePrefix().Push(wrappedSegment).Push(hex.EncodeToString(asset[:]))
}
