// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package protocol applies the transactions that validators derive from
// vote extensions rather than receive from users.
package protocol

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/ethbridge/vms/bridgevm/ethevents"
	"github.com/luxfi/ethbridge/vms/bridgevm/storage"
	"github.com/luxfi/ethbridge/vms/bridgevm/tally"
	"github.com/luxfi/ethbridge/vms/bridgevm/validators"
	"github.com/luxfi/ethbridge/vms/bridgevm/votingpower"
)

// TxResult is the outcome of applying a derived transaction.
type TxResult struct {
	// ChangedKeys holds every storage key the transaction wrote a new value
	// to.
	ChangedKeys *storage.ChangedKeys
	// GasUsed is always zero. Derived transactions are not metered.
	GasUsed uint64
	// Confirmed lists the events that reached quorum in this transaction, in
	// hash order.
	Confirmed []ids.ID
}

func emptyResult() *TxResult {
	return &TxResult{ChangedKeys: storage.NewChangedKeys()}
}

// Update is the deduplicated set of votes one batch carries for one event.
type Update struct {
	Event  ethevents.Event
	Hash   ids.ID
	SeenBy tally.Votes
}

// ApplyDerivedTx folds the votes of one block into the tallies of the
// Ethereum events they attest and acts on every event that became confirmed.
//
// Voting power is resolved for every vote before anything is written, so a
// failure leaves [store] untouched.
func ApplyDerivedTx(
	logger log.Logger,
	store storage.Storage,
	vals validators.State,
	events []ethevents.MultiSignedEvent,
) (*TxResult, error) {
	if len(events) == 0 {
		return emptyResult(), nil
	}

	updates, err := NewUpdates(events)
	if err != nil {
		return nil, err
	}
	powers, err := VotingPowers(vals, updates)
	if err != nil {
		return nil, err
	}

	result := emptyResult()
	var confirmed []Update
	for _, update := range updates {
		changed, newlyConfirmed, err := applyUpdate(logger, store, update, powers)
		if err != nil {
			return nil, fmt.Errorf("couldn't apply update for event %s: %w", update.Hash, err)
		}
		result.ChangedKeys.Union(changed)
		if newlyConfirmed {
			confirmed = append(confirmed, update)
		}
	}

	for _, update := range confirmed {
		changed, err := actOn(logger, store, &update.Event)
		if err != nil {
			return nil, fmt.Errorf("couldn't act on confirmed event %s: %w", update.Hash, err)
		}
		result.ChangedKeys.Union(changed)
		result.Confirmed = append(result.Confirmed, update.Hash)
	}

	logger.Debug("applied ethereum events",
		log.Int("numEvents", len(updates)),
		log.Int("numConfirmed", len(result.Confirmed)),
		log.Int("numChangedKeys", result.ChangedKeys.Len()),
	)
	return result, nil
}

// NewUpdates merges events with identical bodies, keeps the earliest vote of
// every validator and orders the result by event hash.
func NewUpdates(events []ethevents.MultiSignedEvent) ([]Update, error) {
	var (
		signers = make(map[ids.ID][]tally.Vote, len(events))
		bodies  = make(map[ids.ID]ethevents.Event, len(events))
	)
	for _, e := range events {
		h, err := e.Event.Hash()
		if err != nil {
			return nil, fmt.Errorf("couldn't hash event: %w", err)
		}
		bodies[h] = e.Event
		signers[h] = append(signers[h], e.Signers...)
	}

	updates := make([]Update, 0, len(bodies))
	for h, body := range bodies {
		updates = append(updates, Update{
			Event:  body,
			Hash:   h,
			SeenBy: tally.Dedupe(signers[h]),
		})
	}
	slices.SortFunc(updates, func(a, b Update) int {
		return bytes.Compare(a.Hash[:], b.Hash[:])
	})
	return updates, nil
}

// VotingPowers resolves the voting power behind every vote of [updates] at
// the epoch that contains the height of the vote.
func VotingPowers(
	vals validators.State,
	updates []Update,
) (map[tally.Vote]votingpower.FractionalVotingPower, error) {
	var (
		powers = make(map[tally.Vote]votingpower.FractionalVotingPower)
		epochs = make(map[uint64]uint64)
		stakes = make(map[uint64]map[ids.NodeID]uint64)
		totals = make(map[uint64]uint64)
	)
	for _, update := range updates {
		for _, vote := range update.SeenBy.List() {
			if _, ok := powers[vote]; ok {
				continue
			}

			epoch, ok := epochs[vote.Height]
			if !ok {
				var err error
				epoch, err = vals.GetEpoch(vote.Height)
				if err != nil {
					return nil, fmt.Errorf("couldn't get epoch of height %d: %w", vote.Height, err)
				}
				epochs[vote.Height] = epoch
			}

			epochStakes, ok := stakes[epoch]
			if !ok {
				active, err := vals.GetActiveValidators(epoch)
				if err != nil {
					return nil, fmt.Errorf("couldn't get active validators of epoch %d: %w", epoch, err)
				}
				total, err := vals.GetTotalVotingPower(epoch)
				if err != nil {
					return nil, fmt.Errorf("couldn't get total voting power of epoch %d: %w", epoch, err)
				}
				epochStakes = make(map[ids.NodeID]uint64, len(active))
				for _, v := range active {
					epochStakes[v.NodeID] = v.Stake
				}
				stakes[epoch] = epochStakes
				totals[epoch] = total
			}

			stake, ok := epochStakes[vote.Validator]
			if !ok {
				return nil, fmt.Errorf("%w: %s is not active in epoch %d", validators.ErrUnknownValidator, vote, epoch)
			}
			power, err := votingpower.FromStake(stake, totals[epoch])
			if err != nil {
				return nil, fmt.Errorf("couldn't compute voting power of %s: %w", vote, err)
			}
			powers[vote] = power
		}
	}
	return powers, nil
}

// applyUpdate writes the tally of [update] and reports whether its event
// became confirmed.
func applyUpdate(
	logger log.Logger,
	store storage.Storage,
	update Update,
	powers map[tally.Vote]votingpower.FractionalVotingPower,
) (*storage.ChangedKeys, bool, error) {
	keys := tally.KeysFor(storage.EthMsgPrefix(update.Hash))
	exists, err := store.HasKey(keys.Seen)
	if err != nil {
		return nil, false, err
	}

	var (
		t       tally.Tally
		changed *storage.ChangedKeys
	)
	if exists {
		t, changed, err = tally.CalculateUpdated(logger, store, keys)
	} else {
		t, err = tally.CalculateNew(update.SeenBy, powers)
		changed = storage.NewChangedKeys(keys.All()...)
	}
	if err != nil {
		return nil, false, err
	}

	body, err := update.Event.Bytes()
	if err != nil {
		return nil, false, err
	}
	if err := tally.Write(store, keys, body, t); err != nil {
		return nil, false, err
	}
	return changed, t.Seen && changed.Contains(keys.Seen), nil
}
