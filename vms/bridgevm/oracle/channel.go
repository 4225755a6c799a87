// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"context"
	"errors"
	"sync"
)

var ErrDisconnected = errors.New("receiver disconnected")

// NewChannel returns both ends of an unbounded single producer, single
// consumer channel.
func NewChannel[T any]() (*Sender[T], *Receiver[T]) {
	c := &channel[T]{
		notify: make(chan struct{}, 1),
	}
	return &Sender[T]{c: c}, &Receiver[T]{c: c}
}

type channel[T any] struct {
	lock   sync.Mutex
	queue  []T
	closed bool
	notify chan struct{}
}

type Sender[T any] struct {
	c *channel[T]
}

// Send enqueues [v]. It never blocks.
func (s *Sender[T]) Send(v T) error {
	s.c.lock.Lock()
	if s.c.closed {
		s.c.lock.Unlock()
		return ErrDisconnected
	}
	s.c.queue = append(s.c.queue, v)
	s.c.lock.Unlock()

	select {
	case s.c.notify <- struct{}{}:
	default:
	}
	return nil
}

// Connected reports whether the receiver is still listening.
func (s *Sender[T]) Connected() bool {
	s.c.lock.Lock()
	defer s.c.lock.Unlock()

	return !s.c.closed
}

type Receiver[T any] struct {
	c *channel[T]
}

// TryRecv returns the oldest queued value without blocking.
func (r *Receiver[T]) TryRecv() (T, bool) {
	r.c.lock.Lock()
	defer r.c.lock.Unlock()

	var v T
	if len(r.c.queue) == 0 {
		return v, false
	}
	v = r.c.queue[0]
	r.c.queue[0] = *new(T)
	r.c.queue = r.c.queue[1:]
	return v, true
}

// Recv blocks until a value is available or [ctx] is done.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	for {
		if v, ok := r.TryRecv(); ok {
			return v, nil
		}
		select {
		case <-r.c.notify:
		case <-ctx.Done():
			var v T
			return v, ctx.Err()
		}
	}
}

// Close hangs up. Later sends fail with ErrDisconnected.
func (r *Receiver[T]) Close() {
	r.c.lock.Lock()
	defer r.c.lock.Unlock()

	r.c.closed = true
	r.c.queue = nil
}
