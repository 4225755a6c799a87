// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/ethbridge/vms/bridgevm/ethevents"
	"github.com/luxfi/ethbridge/vms/bridgevm/proposal"
	"github.com/luxfi/ethbridge/vms/bridgevm/protocol"
	"github.com/luxfi/ethbridge/vms/bridgevm/storage"
	"github.com/luxfi/ethbridge/vms/bridgevm/tally"
	"github.com/luxfi/ethbridge/vms/bridgevm/txs"
	"github.com/luxfi/ethbridge/vms/bridgevm/vext"
)

var _ txs.Visitor = (*executor)(nil)

// executor applies one admitted transaction of a finalized block.
type executor struct {
	vm         *VM
	state      *storage.State
	lastHeight uint64
	code       proposal.Code

	// wrappers accepted by this block, in block order
	wrappers  []*txs.WrapperTx
	confirmed []ids.ID
	derived   bool
}

func (*executor) RawTx(*txs.RawTx) error {
	return nil
}

func (e *executor) WrapperTx(tx *txs.WrapperTx) error {
	if e.code != proposal.Ok {
		return nil
	}

	// Admission read committed state. Earlier wrappers of this block may
	// have drained the payer since.
	key := storage.BalanceKey(tx.Fee.Token, tx.FeePayer())
	balance, err := storage.ReadAmount(e.state, key)
	if err != nil {
		return err
	}
	if balance.Lt(&tx.Fee.Amount) {
		e.vm.log.Debug("dropping wrapper that can no longer pay its fee",
			log.Stringer("payer", tx.FeePayer()),
			log.Stringer("txHash", tx.TxHash),
		)
		return nil
	}
	remaining := new(uint256.Int).Sub(balance, &tx.Fee.Amount)
	if err := storage.WriteAmount(e.state, key, remaining); err != nil {
		return err
	}
	e.wrappers = append(e.wrappers, tx)
	return nil
}

func (e *executor) DecryptedTx(*txs.DecryptedTx) error {
	return e.popWrapper()
}

func (e *executor) UndecryptableTx(*txs.UndecryptableTx) error {
	return e.popWrapper()
}

// popWrapper consumes the wrapper a recoverable decrypted or undecryptable
// transaction was matched against during admission.
func (e *executor) popWrapper() error {
	if _, ok := e.vm.queue.Pop(); !ok {
		return fmt.Errorf("no wrapper left for %s transaction", e.code)
	}
	return nil
}

func (e *executor) ProtocolTx(tx *txs.ProtocolTx) error {
	if e.code != proposal.Ok {
		return nil
	}
	payload, ok := tx.Payload.(*txs.EthereumEventsDigest)
	if !ok {
		return nil
	}
	digest, err := payload.Digest(e.vm.compressor)
	if err != nil {
		return err
	}
	valid, errs := vext.ValidateList(e.vm.validators, digest.Decompress(e.lastHeight), e.lastHeight)
	if len(errs) > 0 {
		return fmt.Errorf("admitted digest has %d invalid vote extensions", len(errs))
	}

	result, err := protocol.ApplyDerivedTx(e.vm.log, e.state, e.vm.validators, signedEvents(valid))
	if err != nil {
		return err
	}
	e.derived = true
	e.confirmed = append(e.confirmed, result.Confirmed...)
	e.vm.metrics.MarkDerivedTx(len(result.Confirmed))
	return nil
}

// signedEvents credits every event of [valid] to the validator that signed
// it, at the height its extension was signed for.
func signedEvents(valid []vext.Validated) []ethevents.MultiSignedEvent {
	var events []ethevents.MultiSignedEvent
	for _, v := range valid {
		ext := v.Signed.Extension
		vote := tally.Vote{
			Validator: ext.Validator,
			Height:    ext.BlockHeight,
		}
		for _, event := range ext.Events {
			events = append(events, ethevents.MultiSignedEvent{
				Event:   event,
				Signers: []tally.Vote{vote},
			})
		}
	}
	return events
}
