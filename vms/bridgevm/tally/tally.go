// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tally

import (
	"errors"
	"fmt"

	"github.com/luxfi/log"

	"github.com/luxfi/ethbridge/vms/bridgevm/storage"
	"github.com/luxfi/ethbridge/vms/bridgevm/votingpower"
)

const (
	bodySegment        = "body"
	seenSegment        = "seen"
	seenBySegment      = "seen_by"
	votingPowerSegment = "voting_power"
)

var (
	ErrMissingVotingPower = errors.New("voting power was not provided for validator")
	ErrInvalidSeen        = errors.New("invalid seen value")
)

// Tally is the persisted record of the attestations of one item.
type Tally struct {
	VotingPower votingpower.FractionalVotingPower
	SeenBy      Votes
	// Seen only ever transitions from false to true.
	Seen bool
}

type seenByRecord struct {
	Votes []Vote `serialize:"true"`
}

// Keys are the co-located storage keys of one tallied item.
type Keys struct {
	Body        storage.Key
	Seen        storage.Key
	SeenBy      storage.Key
	VotingPower storage.Key
}

// KeysFor derives the keys of the item rooted at [prefix].
func KeysFor(prefix storage.Key) Keys {
	return Keys{
		Body:        prefix.Push(bodySegment),
		Seen:        prefix.Push(seenSegment),
		SeenBy:      prefix.Push(seenBySegment),
		VotingPower: prefix.Push(votingPowerSegment),
	}
}

func (k Keys) All() []storage.Key {
	return []storage.Key{k.Body, k.Seen, k.SeenBy, k.VotingPower}
}

// CalculateNew builds the tally of an item that has never been seen before.
// [powers] must contain the voting power behind every vote in [seenBy].
func CalculateNew(seenBy Votes, powers map[Vote]votingpower.FractionalVotingPower) (Tally, error) {
	total := votingpower.Zero
	for _, vote := range seenBy.List() {
		power, ok := powers[vote]
		if !ok {
			return Tally{}, fmt.Errorf("%w: %s", ErrMissingVotingPower, vote)
		}
		var err error
		total, err = total.Add(power)
		if err != nil {
			return Tally{}, fmt.Errorf("couldn't add the voting power of %s: %w", vote, err)
		}
	}
	return Tally{
		VotingPower: total,
		SeenBy:      seenBy,
		Seen:        votingpower.HasQuorum(total),
	}, nil
}

// CalculateUpdated returns the stored tally of an item that already exists.
//
// Votes arriving for an existing item are not accumulated yet: the stored
// tally is returned as is and nothing is reported as changed.
func CalculateUpdated(logger log.Logger, store storage.Storage, keys Keys) (Tally, *storage.ChangedKeys, error) {
	logger.Warn("updating an existing tally is not implemented, leaving it unchanged",
		log.Stringer("key", keys.Body),
	)
	t, err := Read(store, keys)
	if err != nil {
		return Tally{}, nil, err
	}
	return t, storage.NewChangedKeys(), nil
}

// Read loads the tally stored under [keys].
func Read(store storage.Storage, keys Keys) (Tally, error) {
	seenBytes, err := store.Read(keys.Seen)
	if err != nil {
		return Tally{}, fmt.Errorf("couldn't read %s: %w", keys.Seen, err)
	}
	seen, err := parseSeen(seenBytes)
	if err != nil {
		return Tally{}, err
	}

	seenByBytes, err := store.Read(keys.SeenBy)
	if err != nil {
		return Tally{}, fmt.Errorf("couldn't read %s: %w", keys.SeenBy, err)
	}
	var seenBy seenByRecord
	if _, err := Codec.Unmarshal(seenByBytes, &seenBy); err != nil {
		return Tally{}, fmt.Errorf("couldn't parse %s: %w", keys.SeenBy, err)
	}

	powerBytes, err := store.Read(keys.VotingPower)
	if err != nil {
		return Tally{}, fmt.Errorf("couldn't read %s: %w", keys.VotingPower, err)
	}
	power, err := votingpower.Parse(powerBytes)
	if err != nil {
		return Tally{}, fmt.Errorf("couldn't parse %s: %w", keys.VotingPower, err)
	}

	votes := make(Votes, len(seenBy.Votes))
	for _, v := range seenBy.Votes {
		votes[v.Validator] = v.Height
	}
	return Tally{
		VotingPower: power,
		SeenBy:      votes,
		Seen:        seen,
	}, nil
}

// Write stores [body] and every field of [t] under [keys].
func Write(store storage.Storage, keys Keys, body []byte, t Tally) error {
	seenBy, err := Codec.Marshal(CodecVersion, &seenByRecord{Votes: t.SeenBy.List()})
	if err != nil {
		return fmt.Errorf("couldn't marshal seen_by: %w", err)
	}
	writes := []struct {
		key   storage.Key
		value []byte
	}{
		{key: keys.Body, value: body},
		{key: keys.Seen, value: seenBytes(t.Seen)},
		{key: keys.SeenBy, value: seenBy},
		{key: keys.VotingPower, value: t.VotingPower.Bytes()},
	}
	for _, w := range writes {
		if err := store.Write(w.key, w.value); err != nil {
			return fmt.Errorf("couldn't write %s: %w", w.key, err)
		}
	}
	return nil
}

func seenBytes(seen bool) []byte {
	if seen {
		return []byte{1}
	}
	return []byte{0}
}

func parseSeen(b []byte) (bool, error) {
	switch {
	case len(b) != 1:
		return false, fmt.Errorf("%w: %d bytes", ErrInvalidSeen, len(b))
	case b[0] == 0:
		return false, nil
	case b[0] == 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d", ErrInvalidSeen, b[0])
	}
}
