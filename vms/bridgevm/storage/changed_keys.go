// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "github.com/google/btree"

const changedKeysDegree = 8

// ChangedKeys is an ordered set of distinct storage keys.
//
// The zero value is not usable; use NewChangedKeys.
type ChangedKeys struct {
	tree *btree.BTreeG[Key]
}

func NewChangedKeys(keys ...Key) *ChangedKeys {
	c := &ChangedKeys{
		tree: btree.NewG(changedKeysDegree, Key.Less),
	}
	c.Add(keys...)
	return c
}

func (c *ChangedKeys) Add(keys ...Key) {
	for _, k := range keys {
		c.tree.ReplaceOrInsert(k)
	}
}

// Union adds every key of [other] to [c].
func (c *ChangedKeys) Union(other *ChangedKeys) {
	if other == nil {
		return
	}
	other.tree.Ascend(func(k Key) bool {
		c.tree.ReplaceOrInsert(k)
		return true
	})
}

func (c *ChangedKeys) Contains(k Key) bool {
	return c.tree.Has(k)
}

func (c *ChangedKeys) Len() int {
	return c.tree.Len()
}

// List returns the keys in ascending order.
func (c *ChangedKeys) List() []Key {
	keys := make([]Key, 0, c.tree.Len())
	c.tree.Ascend(func(k Key) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}
