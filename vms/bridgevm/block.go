// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/luxfi/codec"
	"github.com/luxfi/codec/linearcodec"
	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"

	"github.com/luxfi/ethbridge/vms/bridgevm/storage"
	"github.com/luxfi/ethbridge/vms/bridgevm/txs"
)

const (
	codecVersion = 0
	chainSegment = "#chain"
)

// Codec serializes the chain records the VM keeps next to ledger state.
var Codec codec.Manager

func init() {
	Codec = codec.NewManager(math.MaxInt)
	if err := Codec.RegisterCodec(codecVersion, linearcodec.NewDefault()); err != nil {
		panic(err)
	}
}

var (
	lastHeightKey      = storage.NewKey(chainSegment, "last_height")
	pendingWrappersKey = storage.NewKey(chainSegment, "pending_wrappers")

	errNotWrapper = errors.New("pending transaction is not a wrapper")
)

func blockKey(height uint64) storage.Key {
	return storage.NewKey(chainSegment, "blocks", strconv.FormatUint(height, 10))
}

// Block is the record of a finalized block.
type Block struct {
	Height   uint64     `serialize:"true" json:"height"`
	Hash     ids.ID     `serialize:"true" json:"hash"`
	Proposer ids.NodeID `serialize:"true" json:"proposer"`
	TxIDs    []ids.ID   `serialize:"true" json:"txIDs"`
	// Codes holds the admission code of every transaction, in block order.
	Codes []uint8 `serialize:"true" json:"codes"`

	id    ids.ID
	bytes []byte
}

func newBlock(height uint64, hash ids.ID, proposer ids.NodeID, txIDs []ids.ID, codes []uint8) (*Block, error) {
	blk := &Block{
		Height:   height,
		Hash:     hash,
		Proposer: proposer,
		TxIDs:    txIDs,
		Codes:    codes,
	}
	b, err := Codec.Marshal(codecVersion, blk)
	if err != nil {
		return nil, fmt.Errorf("couldn't marshal block: %w", err)
	}
	blk.setBytes(b)
	return blk, nil
}

func parseBlock(b []byte) (*Block, error) {
	blk := &Block{}
	if _, err := Codec.Unmarshal(b, blk); err != nil {
		return nil, fmt.Errorf("couldn't parse block: %w", err)
	}
	blk.setBytes(b)
	return blk, nil
}

func (b *Block) setBytes(bytes []byte) {
	b.bytes = bytes
	b.id = hash.ComputeHash256Array(bytes)
}

// ID is the hash of the record, not the consensus hash of the block.
func (b *Block) ID() ids.ID {
	return b.id
}

func (b *Block) Bytes() []byte {
	return b.bytes
}

func getBlock(store storage.Storage, height uint64) (*Block, error) {
	b, err := store.Read(blockKey(height))
	if err != nil {
		return nil, err
	}
	return parseBlock(b)
}

func putBlock(store storage.Storage, blk *Block) error {
	return store.Write(blockKey(blk.Height), blk.Bytes())
}

func getLastHeight(store storage.Storage) (uint64, error) {
	b, err := store.Read(lastHeightKey)
	if err != nil {
		return 0, err
	}
	return database.ParseUInt64(b)
}

func putLastHeight(store storage.Storage, height uint64) error {
	return store.Write(lastHeightKey, database.PackUInt64(height))
}

type pendingWrappers struct {
	Txs [][]byte `serialize:"true"`
}

// getPendingWrappers loads the wrappers whose inner transactions are still to
// be included, in the order they must be.
func getPendingWrappers(store storage.Storage) (*txs.Queue, error) {
	queue := &txs.Queue{}
	b, err := store.Read(pendingWrappersKey)
	if errors.Is(err, database.ErrNotFound) {
		return queue, nil
	}
	if err != nil {
		return nil, err
	}
	var record pendingWrappers
	if _, err := Codec.Unmarshal(b, &record); err != nil {
		return nil, fmt.Errorf("couldn't parse pending wrappers: %w", err)
	}
	for _, txBytes := range record.Txs {
		tx, err := txs.Parse(txBytes)
		if err != nil {
			return nil, err
		}
		wrapper, ok := tx.Unsigned.(*txs.WrapperTx)
		if !ok {
			return nil, fmt.Errorf("%w: %T", errNotWrapper, tx.Unsigned)
		}
		queue.Push(wrapper)
	}
	return queue, nil
}

func putPendingWrappers(store storage.Storage, queue *txs.Queue) error {
	list := queue.List()
	record := pendingWrappers{Txs: make([][]byte, len(list))}
	for i, wrapper := range list {
		tx, err := txs.NewTx(wrapper)
		if err != nil {
			return err
		}
		record.Txs[i] = tx.Bytes()
	}
	b, err := Codec.Marshal(codecVersion, &record)
	if err != nil {
		return fmt.Errorf("couldn't marshal pending wrappers: %w", err)
	}
	return store.Write(pendingWrappersKey, b)
}
