// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package validators

import (
	"errors"
	"fmt"

	"github.com/luxfi/cache/lru"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
	"github.com/luxfi/metric"
)

var (
	_ State    = (*Cached)(nil)
	_ Registry = (*Epoched)(nil)

	ErrNotRegistry = errors.New("validator state doesn't accept new sets")
)

// Registry is a State new validator sets can be registered with.
type Registry interface {
	State
	SetValidators(epoch uint64, validators []Validator) error
}

// Cached wraps a State with an LRU of per-epoch active sets.
//
// A set registered with the wrapped state carries forward into later epochs,
// so a lookup can cache a set that a later registration replaces. Sets must
// be registered through Cached.SetValidators, which flushes the cache.
type Cached struct {
	state   State
	cache   *lru.Cache[uint64, *epochSet]
	metrics *cacheMetrics
}

type cacheMetrics struct {
	hits   metric.Counter
	misses metric.Counter
}

func NewCached(state State, size int, registerer metric.Registerer) (*Cached, error) {
	metrics := &cacheMetrics{
		hits: metric.NewCounter(
			metric.CounterOpts{
				Name: "bridge_validator_cache_hits",
				Help: "number of validator set cache hits",
			},
		),
		misses: metric.NewCounter(
			metric.CounterOpts{
				Name: "bridge_validator_cache_misses",
				Help: "number of validator set cache misses",
			},
		),
	}
	if err := registerer.Register(metric.AsCollector(metrics.hits)); err != nil {
		return nil, fmt.Errorf("failed to register cache hits metric: %w", err)
	}
	if err := registerer.Register(metric.AsCollector(metrics.misses)); err != nil {
		return nil, fmt.Errorf("failed to register cache misses metric: %w", err)
	}

	return &Cached{
		state:   state,
		cache:   lru.NewCache[uint64, *epochSet](size),
		metrics: metrics,
	}, nil
}

// SetValidators registers [validators] with the wrapped state from [epoch]
// onwards and drops every cached set.
func (c *Cached) SetValidators(epoch uint64, validators []Validator) error {
	registry, ok := c.state.(Registry)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotRegistry, c.state)
	}
	defer c.cache.Flush()
	return registry.SetValidators(epoch, validators)
}

func (c *Cached) GetEpoch(height uint64) (uint64, error) {
	return c.state.GetEpoch(height)
}

func (c *Cached) GetActiveValidators(epoch uint64) ([]Validator, error) {
	set, err := c.get(epoch)
	if err != nil {
		return nil, err
	}
	return append([]Validator(nil), set.validators...), nil
}

func (c *Cached) GetTotalVotingPower(epoch uint64) (uint64, error) {
	set, err := c.get(epoch)
	if err != nil {
		return 0, err
	}
	return set.total, nil
}

func (c *Cached) GetValidatorPublicKey(nodeID ids.NodeID, epoch uint64) (*bls.PublicKey, error) {
	set, err := c.get(epoch)
	if err != nil {
		return nil, err
	}
	for _, v := range set.validators {
		if v.NodeID == nodeID {
			return v.PublicKey, nil
		}
	}
	return nil, fmt.Errorf("%w: %s in epoch %d", ErrUnknownValidator, nodeID, epoch)
}

func (c *Cached) get(epoch uint64) (*epochSet, error) {
	if set, ok := c.cache.Get(epoch); ok {
		c.metrics.hits.Inc()
		return set, nil
	}
	c.metrics.misses.Inc()

	validators, err := c.state.GetActiveValidators(epoch)
	if err != nil {
		return nil, err
	}
	total, err := c.state.GetTotalVotingPower(epoch)
	if err != nil {
		return nil, err
	}
	set := &epochSet{
		validators: validators,
		total:      total,
	}
	c.cache.Put(epoch, set)
	return set, nil
}
