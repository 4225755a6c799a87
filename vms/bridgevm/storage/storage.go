// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/versiondb"
)

const amountLen = 32

var (
	_ Storage = (*State)(nil)
	_ Storage = (*readOnly)(nil)

	ErrReadOnly          = errors.New("storage is read only")
	ErrInvalidAmountSize = errors.New("invalid amount size")
)

// Storage is the key-value view the bridge protocol reads and writes.
//
// Read returns database.ErrNotFound if [key] has no value.
type Storage interface {
	Read(key Key) ([]byte, error)
	Write(key Key, value []byte) error
	HasKey(key Key) (bool, error)
}

// State buffers writes on top of committed state until Commit or Abort.
type State struct {
	db *versiondb.Database
}

func NewState(db database.Database) *State {
	return &State{db: versiondb.New(db)}
}

func (s *State) Read(key Key) ([]byte, error) {
	return s.db.Get(key.Bytes())
}

func (s *State) Write(key Key, value []byte) error {
	return s.db.Put(key.Bytes(), value)
}

func (s *State) HasKey(key Key) (bool, error) {
	return s.db.Has(key.Bytes())
}

// Commit writes the buffered changes to the underlying database.
func (s *State) Commit() error {
	return s.db.Commit()
}

// Abort discards the buffered changes.
func (s *State) Abort() {
	s.db.Abort()
}

// NewReadOnly returns a view of committed state that refuses writes.
func NewReadOnly(db database.Database) Storage {
	return &readOnly{db: db}
}

type readOnly struct {
	db database.Database
}

func (r *readOnly) Read(key Key) ([]byte, error) {
	return r.db.Get(key.Bytes())
}

func (*readOnly) Write(key Key, _ []byte) error {
	return fmt.Errorf("%w: %s", ErrReadOnly, key)
}

func (r *readOnly) HasKey(key Key) (bool, error) {
	return r.db.Has(key.Bytes())
}

// ReadAmount returns the amount stored at [key], or zero if there is none.
func ReadAmount(s Storage, key Key) (*uint256.Int, error) {
	b, err := s.Read(key)
	if errors.Is(err, database.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	if len(b) != amountLen {
		return nil, fmt.Errorf("%w: %s has %d bytes", ErrInvalidAmountSize, key, len(b))
	}
	return new(uint256.Int).SetBytes32(b), nil
}

func WriteAmount(s Storage, key Key, amount *uint256.Int) error {
	b := amount.Bytes32()
	return s.Write(key, b[:])
}
