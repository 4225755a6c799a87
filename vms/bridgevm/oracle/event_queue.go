// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"bytes"
	"slices"

	"github.com/luxfi/ids"

	"github.com/luxfi/ethbridge/vms/bridgevm/ethevents"
)

// EventQueue holds the confirmed events the local validator will report in
// its next vote extensions.
type EventQueue struct {
	receiver *Receiver[ethevents.Event]
	events   map[ids.ID]ethevents.Event
}

func NewEventQueue(receiver *Receiver[ethevents.Event]) *EventQueue {
	return &EventQueue{
		receiver: receiver,
		events:   make(map[ids.ID]ethevents.Event),
	}
}

// Fill drains the receiver without blocking and returns the number of new
// events.
func (q *EventQueue) Fill() (int, error) {
	added := 0
	for {
		event, ok := q.receiver.TryRecv()
		if !ok {
			return added, nil
		}
		h, err := event.Hash()
		if err != nil {
			return added, err
		}
		if _, ok := q.events[h]; ok {
			continue
		}
		q.events[h] = event
		added++
	}
}

// Events returns the queued events ordered by hash.
func (q *EventQueue) Events() []ethevents.Event {
	hashes := make([]ids.ID, 0, len(q.events))
	for h := range q.events {
		hashes = append(hashes, h)
	}
	slices.SortFunc(hashes, func(a, b ids.ID) int {
		return bytes.Compare(a[:], b[:])
	})
	events := make([]ethevents.Event, len(hashes))
	for i, h := range hashes {
		events[i] = q.events[h]
	}
	return events
}

// Prune drops the events for which [seen] returns true.
func (q *EventQueue) Prune(seen func(ids.ID) bool) {
	for h := range q.events {
		if seen(h) {
			delete(q.events, h)
		}
	}
}

func (q *EventQueue) Len() int {
	return len(q.events)
}
