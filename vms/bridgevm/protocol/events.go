// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package protocol

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/log"

	"github.com/luxfi/ethbridge/vms/bridgevm/ethevents"
	"github.com/luxfi/ethbridge/vms/bridgevm/storage"
)

var ErrSupplyOverflow = errors.New("wrapped supply overflows 256 bits")

// actOn applies the side effects of a confirmed event. It must run at most
// once per event.
func actOn(logger log.Logger, store storage.Storage, event *ethevents.Event) (*storage.ChangedKeys, error) {
	switch event.Kind {
	case ethevents.TransfersToLuxKind:
		changed := storage.NewChangedKeys()
		for _, transfer := range event.TransfersToLux {
			keys, err := mintWrapped(store, transfer)
			if err != nil {
				return nil, err
			}
			changed.Union(keys)
			logger.Info("minted wrapped erc20 tokens",
				log.Stringer("asset", transfer.Asset),
				log.Stringer("receiver", transfer.Receiver),
				log.String("amount", transfer.Amount.Dec()),
			)
		}
		return changed, nil
	default:
		logger.Debug("confirmed event has no state changes",
			log.Stringer("kind", event.Kind),
		)
		return storage.NewChangedKeys(), nil
	}
}

// mintWrapped credits [transfer] to its receiver and grows the supply of the
// wrapped asset by the same amount.
func mintWrapped(store storage.Storage, transfer ethevents.TransferToLux) (*storage.ChangedKeys, error) {
	var (
		balanceKey = storage.WrappedBalanceKey(transfer.Asset, transfer.Receiver)
		supplyKey  = storage.WrappedSupplyKey(transfer.Asset)
	)
	for _, key := range []storage.Key{balanceKey, supplyKey} {
		amount, err := storage.ReadAmount(store, key)
		if err != nil {
			return nil, err
		}
		sum, overflow := new(uint256.Int).AddOverflow(amount, &transfer.Amount)
		if overflow {
			return nil, fmt.Errorf("%w: %s", ErrSupplyOverflow, key)
		}
		if err := storage.WriteAmount(store, key, sum); err != nil {
			return nil, err
		}
	}
	return storage.NewChangedKeys(balanceKey, supplyKey), nil
}
