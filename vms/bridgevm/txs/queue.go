// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

// Queue holds the wrappers committed by the previous block, in the order
// their decrypted transactions must appear.
//
// Queue is not safe for concurrent use. It is owned by block processing.
type Queue struct {
	wrappers []*WrapperTx
}

func (q *Queue) Push(tx *WrapperTx) {
	q.wrappers = append(q.wrappers, tx)
}

// Pop removes the head of the queue.
func (q *Queue) Pop() (*WrapperTx, bool) {
	if len(q.wrappers) == 0 {
		return nil, false
	}
	tx := q.wrappers[0]
	q.wrappers[0] = nil
	q.wrappers = q.wrappers[1:]
	return tx, true
}

func (q *Queue) Len() int {
	return len(q.wrappers)
}

// List returns the queued wrappers from head to tail.
func (q *Queue) List() []*WrapperTx {
	return append([]*WrapperTx(nil), q.wrappers...)
}

// Cursor returns an iterator over the queue that leaves it untouched.
func (q *Queue) Cursor() *Cursor {
	return &Cursor{wrappers: q.wrappers}
}

// Cursor walks a snapshot of a Queue.
type Cursor struct {
	wrappers []*WrapperTx
	next     int
}

// Next returns the next expected wrapper.
func (c *Cursor) Next() (*WrapperTx, bool) {
	if c.next >= len(c.wrappers) {
		return nil, false
	}
	tx := c.wrappers[c.next]
	c.next++
	return tx, true
}
