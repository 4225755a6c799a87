// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ethevents

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"

	"github.com/luxfi/ethbridge/vms/bridgevm/storage"
	"github.com/luxfi/ethbridge/vms/bridgevm/tally"
)

// Kind tags the variant held by an Event.
type Kind uint8

const (
	// TransfersToLuxKind is a batch of ERC20 deposits into the bridge that
	// mint wrapped tokens once confirmed.
	TransfersToLuxKind Kind = iota
	// TransfersToEthereumKind is a batch of withdrawals relayed to Ethereum.
	TransfersToEthereumKind
	// NewContractKind announces a new bridge contract.
	NewContractKind
	// UpgradedContractKind announces an upgrade to an existing contract.
	UpgradedContractKind
	// UpdateBridgeWhitelistKind changes the set of bridgeable tokens.
	UpdateBridgeWhitelistKind

	numKinds
)

var (
	ErrUnknownKind  = errors.New("unknown event kind")
	ErrNonCanonical = errors.New("event carries fields of another kind")
	ErrNoTransfers  = errors.New("transfer event without transfers")
)

func (k Kind) String() string {
	switch k {
	case TransfersToLuxKind:
		return "transfers_to_lux"
	case TransfersToEthereumKind:
		return "transfers_to_ethereum"
	case NewContractKind:
		return "new_contract"
	case UpgradedContractKind:
		return "upgraded_contract"
	case UpdateBridgeWhitelistKind:
		return "update_bridge_whitelist"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// TransferToLux is an ERC20 deposit credited to [Receiver] on this chain.
type TransferToLux struct {
	Amount   uint256.Int    `serialize:"true" json:"amount"`
	Asset    common.Address `serialize:"true" json:"asset"`
	Receiver ids.ShortID    `serialize:"true" json:"receiver"`
}

// TransferToEthereum is a withdrawal of [Asset] to [Receiver] on Ethereum.
type TransferToEthereum struct {
	Amount   uint256.Int    `serialize:"true" json:"amount"`
	Asset    common.Address `serialize:"true" json:"asset"`
	Receiver common.Address `serialize:"true" json:"receiver"`
}

// TokenWhitelist caps how much of [Token] may be bridged.
type TokenWhitelist struct {
	Token common.Address `serialize:"true" json:"token"`
	Cap   uint256.Int    `serialize:"true" json:"cap"`
}

// Event is an Ethereum bridge event. Only the fields of [Kind] are set; the
// canonical encoding of every other field is empty.
type Event struct {
	Kind  Kind        `serialize:"true" json:"kind"`
	Nonce uint256.Int `serialize:"true" json:"nonce"`

	TransfersToLux      []TransferToLux      `serialize:"true" json:"transfersToLux,omitempty"`
	TransfersToEthereum []TransferToEthereum `serialize:"true" json:"transfersToEthereum,omitempty"`

	// Name and Address describe NewContract and UpgradedContract.
	Name    string         `serialize:"true" json:"name,omitempty"`
	Address common.Address `serialize:"true" json:"address,omitempty"`

	Whitelist []TokenWhitelist `serialize:"true" json:"whitelist,omitempty"`
}

func NewTransfersToLux(nonce uint64, transfers ...TransferToLux) Event {
	return Event{
		Kind:           TransfersToLuxKind,
		Nonce:          *uint256.NewInt(nonce),
		TransfersToLux: transfers,
	}
}

func NewTransfersToEthereum(nonce uint64, transfers ...TransferToEthereum) Event {
	return Event{
		Kind:                TransfersToEthereumKind,
		Nonce:               *uint256.NewInt(nonce),
		TransfersToEthereum: transfers,
	}
}

func NewContract(nonce uint64, name string, address common.Address) Event {
	return Event{
		Kind:    NewContractKind,
		Nonce:   *uint256.NewInt(nonce),
		Name:    name,
		Address: address,
	}
}

func NewUpgradedContract(nonce uint64, name string, address common.Address) Event {
	return Event{
		Kind:    UpgradedContractKind,
		Nonce:   *uint256.NewInt(nonce),
		Name:    name,
		Address: address,
	}
}

func NewUpdateBridgeWhitelist(nonce uint64, whitelist ...TokenWhitelist) Event {
	return Event{
		Kind:      UpdateBridgeWhitelistKind,
		Nonce:     *uint256.NewInt(nonce),
		Whitelist: whitelist,
	}
}

// Verify checks that [e] is a known kind in canonical form.
func (e *Event) Verify() error {
	if e.Kind >= numKinds {
		return fmt.Errorf("%w: %d", ErrUnknownKind, e.Kind)
	}
	var (
		hasToLux     = len(e.TransfersToLux) > 0
		hasToEth     = len(e.TransfersToEthereum) > 0
		hasContract  = e.Name != "" || e.Address != (common.Address{})
		hasWhitelist = len(e.Whitelist) > 0
	)
	switch e.Kind {
	case TransfersToLuxKind:
		if !hasToLux {
			return ErrNoTransfers
		}
		if hasToEth || hasContract || hasWhitelist {
			return fmt.Errorf("%w: %s", ErrNonCanonical, e.Kind)
		}
	case TransfersToEthereumKind:
		if !hasToEth {
			return ErrNoTransfers
		}
		if hasToLux || hasContract || hasWhitelist {
			return fmt.Errorf("%w: %s", ErrNonCanonical, e.Kind)
		}
	case NewContractKind, UpgradedContractKind:
		if hasToLux || hasToEth || hasWhitelist {
			return fmt.Errorf("%w: %s", ErrNonCanonical, e.Kind)
		}
	case UpdateBridgeWhitelistKind:
		if hasToLux || hasToEth || hasContract {
			return fmt.Errorf("%w: %s", ErrNonCanonical, e.Kind)
		}
	}
	return nil
}

// Bytes returns the canonical encoding of [e].
func (e *Event) Bytes() ([]byte, error) {
	return Codec.Marshal(CodecVersion, e)
}

// Hash returns the Keccak-256 digest of the canonical encoding of [e].
func (e *Event) Hash() (ids.ID, error) {
	b, err := e.Bytes()
	if err != nil {
		return ids.Empty, err
	}
	return ids.ID(crypto.Keccak256Hash(b)), nil
}

// Keys returns the storage keys of the tally of [e].
func (e *Event) Keys() (tally.Keys, error) {
	h, err := e.Hash()
	if err != nil {
		return tally.Keys{}, err
	}
	return tally.KeysFor(storage.EthMsgPrefix(h)), nil
}

func (e *Event) String() string {
	return fmt.Sprintf("%s(nonce = %s)", e.Kind, e.Nonce.Dec())
}

// Parse is the inverse of Bytes.
func Parse(b []byte) (Event, error) {
	var e Event
	if _, err := Codec.Unmarshal(b, &e); err != nil {
		return Event{}, err
	}
	return e, e.Verify()
}

// Hashed pairs an event with its hash.
type Hashed struct {
	Event Event
	Hash  ids.ID
}

// SortUnique returns [events] without duplicates, ordered by hash.
func SortUnique(events []Event) ([]Hashed, error) {
	seen := make(map[ids.ID]struct{}, len(events))
	hashed := make([]Hashed, 0, len(events))
	for _, e := range events {
		h, err := e.Hash()
		if err != nil {
			return nil, err
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		hashed = append(hashed, Hashed{Event: e, Hash: h})
	}
	slices.SortFunc(hashed, func(a, b Hashed) int {
		return bytes.Compare(a.Hash[:], b.Hash[:])
	})
	return hashed, nil
}

// MultiSignedEvent is an event together with every validator vote claiming
// to have seen it. Signers may repeat a validator at several heights.
type MultiSignedEvent struct {
	Event   Event        `serialize:"true" json:"event"`
	Signers []tally.Vote `serialize:"true" json:"signers"`
}
