// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/ids"

	"github.com/luxfi/ethbridge/vms/bridgevm/ethevents"
)

const (
	transferToLuxEvent         = "TransferToLux"
	transferToEthereumEvent    = "TransferToEthereum"
	updateBridgeWhitelistEvent = "UpdateBridgeWhitelist"
	newContractEvent           = "NewContract"
	upgradedContractEvent      = "UpgradedContract"

	bridgeABIJSON = `[
	{"type":"event","name":"TransferToLux","inputs":[
		{"name":"nonce","type":"uint256"},
		{"name":"assets","type":"address[]"},
		{"name":"amounts","type":"uint256[]"},
		{"name":"receivers","type":"address[]"},
		{"name":"confirmations","type":"uint32"}]},
	{"type":"event","name":"TransferToEthereum","inputs":[
		{"name":"nonce","type":"uint256"},
		{"name":"assets","type":"address[]"},
		{"name":"amounts","type":"uint256[]"},
		{"name":"receivers","type":"address[]"},
		{"name":"confirmations","type":"uint32"}]},
	{"type":"event","name":"UpdateBridgeWhitelist","inputs":[
		{"name":"nonce","type":"uint256"},
		{"name":"tokens","type":"address[]"},
		{"name":"caps","type":"uint256[]"},
		{"name":"confirmations","type":"uint32"}]}
]`

	governanceABIJSON = `[
	{"type":"event","name":"NewContract","inputs":[
		{"name":"name","type":"string"},
		{"name":"addr","type":"address"}]},
	{"type":"event","name":"UpgradedContract","inputs":[
		{"name":"name","type":"string"},
		{"name":"addr","type":"address"}]}
]`
)

var (
	BridgeABI     = mustParseABI(bridgeABIJSON)
	GovernanceABI = mustParseABI(governanceABIJSON)

	ErrUnknownEvent   = errors.New("unknown contract event")
	ErrLengthMismatch = errors.New("mismatched transfer field lengths")
	ErrAmountOverflow = errors.New("amount overflows 256 bits")
)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

type transfersLog struct {
	Nonce         *big.Int
	Assets        []common.Address
	Amounts       []*big.Int
	Receivers     []common.Address
	Confirmations uint32
}

type whitelistLog struct {
	Nonce         *big.Int
	Tokens        []common.Address
	Caps          []*big.Int
	Confirmations uint32
}

type contractLog struct {
	Name string
	Addr common.Address
}

// decodeLog decodes [l], emitted by [contract], into a bridge event and the
// number of confirmations the emitter asked for.
func decodeLog(contract abi.ABI, l *types.Log) (ethevents.Event, uint64, error) {
	if len(l.Topics) == 0 {
		return ethevents.Event{}, 0, fmt.Errorf("%w: log has no topics", ErrUnknownEvent)
	}
	event, err := contract.EventByID(l.Topics[0])
	if err != nil {
		return ethevents.Event{}, 0, fmt.Errorf("%w: %w", ErrUnknownEvent, err)
	}

	switch event.Name {
	case transferToLuxEvent, transferToEthereumEvent:
		var raw transfersLog
		if err := contract.UnpackIntoInterface(&raw, event.Name, l.Data); err != nil {
			return ethevents.Event{}, 0, err
		}
		e, err := raw.event(event.Name == transferToLuxEvent)
		return e, uint64(raw.Confirmations), err
	case updateBridgeWhitelistEvent:
		var raw whitelistLog
		if err := contract.UnpackIntoInterface(&raw, event.Name, l.Data); err != nil {
			return ethevents.Event{}, 0, err
		}
		e, err := raw.event()
		return e, uint64(raw.Confirmations), err
	case newContractEvent, upgradedContractEvent:
		var raw contractLog
		if err := contract.UnpackIntoInterface(&raw, event.Name, l.Data); err != nil {
			return ethevents.Event{}, 0, err
		}
		if event.Name == newContractEvent {
			return ethevents.NewContract(0, raw.Name, raw.Addr), 0, nil
		}
		return ethevents.NewUpgradedContract(0, raw.Name, raw.Addr), 0, nil
	default:
		return ethevents.Event{}, 0, fmt.Errorf("%w: %s", ErrUnknownEvent, event.Name)
	}
}

func (raw *transfersLog) event(toLux bool) (ethevents.Event, error) {
	if len(raw.Assets) != len(raw.Amounts) || len(raw.Assets) != len(raw.Receivers) {
		return ethevents.Event{}, ErrLengthMismatch
	}
	nonce, err := toUint256(raw.Nonce)
	if err != nil {
		return ethevents.Event{}, err
	}

	e := ethevents.Event{Nonce: *nonce}
	if toLux {
		e.Kind = ethevents.TransfersToLuxKind
	} else {
		e.Kind = ethevents.TransfersToEthereumKind
	}
	for i, asset := range raw.Assets {
		amount, err := toUint256(raw.Amounts[i])
		if err != nil {
			return ethevents.Event{}, err
		}
		if toLux {
			e.TransfersToLux = append(e.TransfersToLux, ethevents.TransferToLux{
				Amount:   *amount,
				Asset:    asset,
				Receiver: ids.ShortID(raw.Receivers[i]),
			})
		} else {
			e.TransfersToEthereum = append(e.TransfersToEthereum, ethevents.TransferToEthereum{
				Amount:   *amount,
				Asset:    asset,
				Receiver: raw.Receivers[i],
			})
		}
	}
	return e, nil
}

func (raw *whitelistLog) event() (ethevents.Event, error) {
	if len(raw.Tokens) != len(raw.Caps) {
		return ethevents.Event{}, ErrLengthMismatch
	}
	nonce, err := toUint256(raw.Nonce)
	if err != nil {
		return ethevents.Event{}, err
	}
	e := ethevents.Event{
		Kind:  ethevents.UpdateBridgeWhitelistKind,
		Nonce: *nonce,
	}
	for i, token := range raw.Tokens {
		limit, err := toUint256(raw.Caps[i])
		if err != nil {
			return ethevents.Event{}, err
		}
		e.Whitelist = append(e.Whitelist, ethevents.TokenWhitelist{
			Token: token,
			Cap:   *limit,
		})
	}
	return e, nil
}

func toUint256(b *big.Int) (*uint256.Int, error) {
	if b == nil {
		return new(uint256.Int), nil
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return v, nil
}
