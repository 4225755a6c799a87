// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/rpc/v2"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"github.com/luxfi/utils/json"
	"github.com/luxfi/version"

	"github.com/luxfi/ethbridge/utils/compression"
	"github.com/luxfi/ethbridge/vms/bridgevm/config"
	"github.com/luxfi/ethbridge/vms/bridgevm/ethevents"
	"github.com/luxfi/ethbridge/vms/bridgevm/metrics"
	"github.com/luxfi/ethbridge/vms/bridgevm/oracle"
	"github.com/luxfi/ethbridge/vms/bridgevm/proposal"
	"github.com/luxfi/ethbridge/vms/bridgevm/storage"
	"github.com/luxfi/ethbridge/vms/bridgevm/tally"
	"github.com/luxfi/ethbridge/vms/bridgevm/txs"
	"github.com/luxfi/ethbridge/vms/bridgevm/validators"
	"github.com/luxfi/ethbridge/vms/bridgevm/vext"
)

var (
	Version = &version.Semantic{
		Major: 1,
		Minor: 0,
		Patch: 0,
	}

	statePrefix = []byte("state")

	ErrUnexpectedHeight = errors.New("unexpected block height")
	ErrRejectedBlock    = errors.New("block was rejected")
	ErrNotValidator     = errors.New("node is not a validator")
)

// Identity is the validator key of the local node.
type Identity struct {
	NodeID ids.NodeID
	Signer bls.Signer
}

// Params are the dependencies a VM is initialized with.
type Params struct {
	Log        log.Logger
	DB         database.Database
	Registerer metric.Registerer
	Genesis    []byte
	Config     []byte
	// Identity is nil on nodes that don't validate.
	Identity *Identity
	// DecryptionKey is the ML-KEM private key wrapper payloads are encrypted
	// to.
	DecryptionKey []byte
	// Events is the receiving end of the oracle channel. It is nil when the
	// bridge oracle is off.
	Events *oracle.Receiver[ethevents.Event]
}

// FinalizeRequest is a block decided by consensus.
type FinalizeRequest struct {
	Txs      [][]byte
	Proposer ids.NodeID
	Height   uint64
	Hash     ids.ID
}

type FinalizeResponse struct {
	Results []proposal.TxResult
	// Confirmed lists the Ethereum events this block confirmed.
	Confirmed []ids.ID
}

type VM struct {
	log     log.Logger
	config  *config.Config
	genesis *Genesis

	// committed ledger state
	db database.Database

	validatorsLock sync.Mutex
	validators     validators.State
	compressor     compression.Compressor
	metrics        metrics.Metrics

	identity      *Identity
	decryptionKey []byte
	receiver      *oracle.Receiver[ethevents.Event]
	events        *oracle.EventQueue

	// Wrappers whose inner transactions the next block must carry.
	queue      *txs.Queue
	lastHeight uint64

	mu sync.Mutex
}

func (vm *VM) Initialize(_ context.Context, params Params) error {
	if params.Log != nil {
		vm.log = params.Log
	}
	if vm.log == nil {
		vm.log = log.NewNoOpLogger()
	}

	cfg, err := config.GetConfig(params.Config)
	if err != nil {
		return err
	}
	vm.config = cfg

	vm.genesis, err = ParseGenesis(params.Genesis)
	if err != nil {
		return err
	}
	activeSet, err := vm.genesis.ActiveSet()
	if err != nil {
		return err
	}
	epoched, err := validators.NewEpoched(cfg.BlocksPerEpoch)
	if err != nil {
		return err
	}
	cached, err := validators.NewCached(epoched, cfg.ValidatorCacheSize, params.Registerer)
	if err != nil {
		return err
	}
	if err := cached.SetValidators(0, activeSet); err != nil {
		return err
	}
	vm.validators = validators.NewLockedState(&vm.validatorsLock, cached)

	vm.compressor, err = compression.NewZstdCompressor(int64(cfg.MaxDigestSize))
	if err != nil {
		return fmt.Errorf("failed to create digest compressor: %w", err)
	}
	vm.metrics, err = metrics.New(params.Registerer)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	vm.identity = params.Identity
	vm.decryptionKey = params.DecryptionKey
	if params.Events != nil {
		vm.receiver = params.Events
		vm.events = oracle.NewEventQueue(params.Events)
	}

	vm.db = prefixdb.New(statePrefix, params.DB)
	committed := storage.NewReadOnly(vm.db)
	lastHeight, err := getLastHeight(committed)
	switch {
	case errors.Is(err, database.ErrNotFound):
		if err := vm.initGenesis(); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("failed to load last height: %w", err)
	default:
		vm.lastHeight = lastHeight
	}

	vm.queue, err = getPendingWrappers(committed)
	if err != nil {
		return err
	}

	vm.log.Info("initialized bridge vm",
		log.Uint64("lastHeight", vm.lastHeight),
		log.Int("numValidators", len(activeSet)),
		log.Int("numPendingWrappers", vm.queue.Len()),
		log.String("ethereumMode", string(cfg.Ethereum.Mode)),
	)
	return nil
}

func (vm *VM) initGenesis() error {
	state := storage.NewState(vm.db)
	if err := vm.genesis.writeBalances(state); err != nil {
		state.Abort()
		return err
	}
	if err := putLastHeight(state, 0); err != nil {
		state.Abort()
		return err
	}
	vm.lastHeight = 0
	return state.Commit()
}

// LastHeight returns the height of the last finalized block.
func (vm *VM) LastHeight() uint64 {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	return vm.lastHeight
}

// ExtendVote returns the signed vote extension of the local validator for
// the block after the last finalized one. Nodes that don't validate extend
// their votes with nothing.
func (vm *VM) ExtendVote(context.Context) ([]byte, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.identity == nil {
		return nil, nil
	}

	var events []ethevents.Event
	if vm.events != nil {
		if _, err := vm.events.Fill(); err != nil {
			return nil, fmt.Errorf("failed to drain oracle events: %w", err)
		}
		events = vm.events.Events()
	}

	ext, err := vext.New(vm.lastHeight+1, vm.identity.NodeID, events)
	if err != nil {
		return nil, err
	}
	signed, err := vext.Sign(vm.identity.Signer, ext)
	if err != nil {
		return nil, err
	}

	vm.log.Debug("extended vote",
		log.Uint64("height", ext.BlockHeight),
		log.Int("numEvents", len(ext.Events)),
	)
	return signed.Bytes()
}

// VerifyVoteExtension reports whether [b] is a valid extension by an active
// validator for the block after the last finalized one.
func (vm *VM) VerifyVoteExtension(_ context.Context, b []byte) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	signed, err := vext.Parse(b)
	if err != nil {
		vm.log.Debug("dropping malformed vote extension", log.Err(err))
		return false
	}
	if _, err := vext.Validate(vm.validators, signed, vm.lastHeight+1); err != nil {
		vm.log.Debug("dropping invalid vote extension",
			log.Stringer("validator", signed.Extension.Validator),
			log.Err(err),
		)
		return false
	}
	return true
}

// BuildDigestTx compresses the extensions of the last finalized height into
// a protocol transaction signed by the local validator. Invalid extensions
// are dropped.
func (vm *VM) BuildDigestTx(_ context.Context, exts [][]byte) ([]byte, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.identity == nil {
		return nil, ErrNotValidator
	}

	signed := make([]*vext.Signed, 0, len(exts))
	for _, b := range exts {
		ext, err := vext.Parse(b)
		if err != nil {
			vm.log.Debug("dropping malformed vote extension", log.Err(err))
			continue
		}
		signed = append(signed, ext)
	}
	valid, errs := vext.ValidateList(vm.validators, signed, vm.lastHeight)
	if len(errs) > 0 {
		vm.log.Debug("dropping invalid vote extensions",
			log.Int("numInvalid", len(errs)),
			log.Err(errors.Join(errs...)),
		)
	}

	included := make([]*vext.Signed, 0, len(valid))
	for _, v := range valid {
		included = append(included, v.Signed)
	}
	digest, err := vext.Compress(included)
	if err != nil {
		return nil, err
	}
	payload, err := txs.NewEthereumEventsDigest(vm.compressor, digest)
	if err != nil {
		return nil, err
	}
	protocolTx := &txs.ProtocolTx{Payload: payload}
	if err := protocolTx.Sign(vm.identity.Signer); err != nil {
		return nil, err
	}
	tx, err := txs.NewTx(protocolTx)
	if err != nil {
		return nil, err
	}
	return tx.Bytes(), nil
}

func (vm *VM) processor() *proposal.Processor {
	return proposal.New(
		proposal.Config{
			Log:           vm.log,
			Validators:    vm.validators,
			Compressor:    vm.compressor,
			Metrics:       vm.metrics,
			DecryptionKey: vm.decryptionKey,
		},
		storage.NewReadOnly(vm.db),
	)
}

// ProcessProposal decides whether the local node may vote for [req].
func (vm *VM) ProcessProposal(_ context.Context, req *proposal.Request) proposal.Response {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	return vm.processor().ProcessProposal(req, vm.queue)
}

// FinalizeBlock applies the admitted transactions of a decided block and
// commits the result.
func (vm *VM) FinalizeBlock(_ context.Context, req *FinalizeRequest) (*FinalizeResponse, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if req.Height != vm.lastHeight+1 {
		return nil, fmt.Errorf("%w: expected %d but got %d", ErrUnexpectedHeight, vm.lastHeight+1, req.Height)
	}

	var (
		processor = vm.processor()
		batch     = &proposal.Batch{
			LastHeight: vm.lastHeight,
			Cursor:     vm.queue.Cursor(),
		}
		results = make([]proposal.TxResult, len(req.Txs))
		parsed  = make([]*txs.Tx, len(req.Txs))
	)
	for i, b := range req.Txs {
		results[i] = processor.ProcessTx(b, batch)
		if !results[i].Code.IsRecoverable() {
			return nil, fmt.Errorf("%w: tx %d is %s: %s", ErrRejectedBlock, i, results[i].Code, results[i].Info)
		}
		if tx, err := txs.Parse(b); err == nil {
			parsed[i] = tx
		}
	}
	if batch.Digests > 1 {
		return nil, fmt.Errorf("%w: %d vote extension digests", ErrRejectedBlock, batch.Digests)
	}

	state := storage.NewState(vm.db)
	exec := &executor{
		vm:         vm,
		state:      state,
		lastHeight: vm.lastHeight,
	}
	restore := vm.queue.List()
	if err := vm.execute(exec, req, results, parsed); err != nil {
		state.Abort()
		vm.queue = &txs.Queue{}
		for _, wrapper := range restore {
			vm.queue.Push(wrapper)
		}
		return nil, err
	}

	vm.lastHeight = req.Height
	if vm.events != nil {
		vm.events.Prune(vm.isSeen)
	}
	for _, tx := range parsed {
		if tx == nil {
			continue
		}
		if err := vm.metrics.MarkTxFinalized(tx); err != nil {
			return nil, err
		}
	}

	vm.log.Info("finalized block",
		log.Uint64("height", req.Height),
		log.Stringer("blkID", req.Hash),
		log.Int("numTxs", len(req.Txs)),
		log.Int("numConfirmed", len(exec.confirmed)),
		log.Int("numPendingWrappers", vm.queue.Len()),
	)
	return &FinalizeResponse{
		Results:   results,
		Confirmed: exec.confirmed,
	}, nil
}

func (vm *VM) execute(exec *executor, req *FinalizeRequest, results []proposal.TxResult, parsed []*txs.Tx) error {
	txIDs := make([]ids.ID, len(req.Txs))
	codes := make([]uint8, len(req.Txs))
	for i, tx := range parsed {
		codes[i] = uint8(results[i].Code)
		if tx == nil {
			continue
		}
		txIDs[i] = tx.ID()
		exec.code = results[i].Code
		if err := tx.Unsigned.Visit(exec); err != nil {
			return fmt.Errorf("failed to execute tx %s: %w", tx.ID(), err)
		}
	}
	for _, wrapper := range exec.wrappers {
		vm.queue.Push(wrapper)
	}

	blk, err := newBlock(req.Height, req.Hash, req.Proposer, txIDs, codes)
	if err != nil {
		return err
	}
	if err := putBlock(exec.state, blk); err != nil {
		return err
	}
	if err := putPendingWrappers(exec.state, vm.queue); err != nil {
		return err
	}
	if err := putLastHeight(exec.state, req.Height); err != nil {
		return err
	}
	return exec.state.Commit()
}

// isSeen reports whether the event with [eventHash] is already confirmed in
// committed state.
func (vm *VM) isSeen(eventHash ids.ID) bool {
	t, err := tally.Read(storage.NewReadOnly(vm.db), tally.KeysFor(storage.EthMsgPrefix(eventHash)))
	if err != nil {
		return false
	}
	return t.Seen
}

// CreateHandlers returns the JSON-RPC handler of the bridge API.
func (vm *VM) CreateHandlers(context.Context) (map[string]http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	if err := vm.RegisterService(server); err != nil {
		return nil, err
	}
	return map[string]http.Handler{
		"": server,
	}, nil
}

func (vm *VM) HealthCheck(context.Context) (interface{}, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	details := map[string]interface{}{
		"lastHeight":      vm.lastHeight,
		"pendingWrappers": vm.queue.Len(),
		"ethereumMode":    vm.config.Ethereum.Mode,
	}
	if vm.events != nil {
		details["pendingEvents"] = vm.events.Len()
	}
	return details, nil
}

func (*VM) Version(context.Context) (string, error) {
	return Version.String(), nil
}

// Shutdown hangs up on the oracle, which then stops on its own.
func (vm *VM) Shutdown(context.Context) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.receiver != nil {
		vm.receiver.Close()
	}
	return nil
}
