// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package proposal decides whether a proposed block may be voted for.
package proposal

import (
	"errors"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/ethbridge/utils/compression"
	"github.com/luxfi/ethbridge/vms/bridgevm/metrics"
	"github.com/luxfi/ethbridge/vms/bridgevm/storage"
	"github.com/luxfi/ethbridge/vms/bridgevm/txs"
	"github.com/luxfi/ethbridge/vms/bridgevm/validators"
	"github.com/luxfi/ethbridge/vms/bridgevm/vext"
	"github.com/luxfi/ethbridge/vms/bridgevm/votingpower"
)

const (
	infoAccepted             = "Process proposal accepted this transaction"
	infoRawTx                = "non-encrypted transactions are not supported"
	infoInsufficientStake    = "insufficient backing stake"
	infoInvalidVoteExtension = "at least one included vote extension was invalid"
	infoUnsupportedProtocol  = "unsupported protocol transaction type"
	infoExtraTxs             = "more decrypted txs than expected"
	infoInvalidOrder         = "violated the tx order determined in the previous block"
	infoFalselyUndecryptable = "incorrectly marked as un-decryptable"
	infoInsufficientFee      = "does not have sufficient balance to pay fee"
)

// Request is a block proposed at [Height].
type Request struct {
	Txs      [][]byte
	Proposer ids.NodeID
	Height   uint64
	Hash     ids.ID
}

// LastHeight is the height of the last committed block when [r] is
// processed.
func (r *Request) LastHeight() uint64 {
	if r.Height == 0 {
		return 0
	}
	return r.Height - 1
}

type TxResult struct {
	Code Code
	Info string
}

type Response struct {
	Accept  bool
	Results []TxResult
}

// Batch is the state threaded through the transactions of one proposal.
type Batch struct {
	LastHeight uint64
	Cursor     *txs.Cursor
	Digests    int
}

type Config struct {
	Log        log.Logger
	Validators validators.State
	Compressor compression.Compressor
	Metrics    metrics.Metrics
	// DecryptionKey is the ML-KEM private key wrappers are encrypted to.
	DecryptionKey []byte
}

// Processor classifies proposed transactions against committed state.
type Processor struct {
	Config
	state storage.Storage
}

// New returns a processor reading from [committed]. Writes through the
// processor are rejected.
func New(config Config, committed storage.Storage) *Processor {
	return &Processor{
		Config: config,
		state:  committed,
	}
}

// ProcessProposal classifies every transaction of [req]. The block is
// accepted iff it carries at most one vote extension digest and every
// transaction is recoverable.
func (p *Processor) ProcessProposal(req *Request, queue *txs.Queue) Response {
	batch := &Batch{
		LastHeight: req.LastHeight(),
		Cursor:     queue.Cursor(),
	}
	resp := Response{
		Accept:  true,
		Results: make([]TxResult, len(req.Txs)),
	}
	for i, b := range req.Txs {
		result := p.ProcessTx(b, batch)
		resp.Results[i] = result
		if !result.Code.IsRecoverable() {
			resp.Accept = false
		}
		p.Metrics.MarkTxResult(result.Code.String())
	}
	if batch.Digests > 1 {
		p.Log.Warn("proposal carries more than one vote extension digest",
			log.Stringer("blkID", req.Hash),
			log.Stringer("proposer", req.Proposer),
			log.Int("numDigests", batch.Digests),
		)
		resp.Accept = false
	}
	p.Metrics.MarkProposal(resp.Accept)

	p.Log.Debug("processed proposal",
		log.Stringer("blkID", req.Hash),
		log.Uint64("height", req.Height),
		log.Int("numTxs", len(req.Txs)),
		log.Bool("accepted", resp.Accept),
	)
	return resp
}

// ProcessTx classifies one transaction.
func (p *Processor) ProcessTx(b []byte, batch *Batch) TxResult {
	tx, err := txs.ProcessTx(b)
	switch {
	case errors.Is(err, txs.ErrUnsigned), errors.Is(err, txs.ErrInvalidSignature):
		return TxResult{Code: InvalidSig, Info: err.Error()}
	case err != nil:
		return TxResult{Code: InvalidTx, Info: err.Error()}
	}

	c := &classifier{
		Processor: p,
		batch:     batch,
	}
	if err := tx.Unsigned.Visit(c); err != nil {
		return TxResult{Code: InvalidTx, Info: err.Error()}
	}
	return c.result
}

var _ txs.Visitor = (*classifier)(nil)

type classifier struct {
	*Processor
	batch  *Batch
	result TxResult
}

func (c *classifier) set(code Code, info string) error {
	c.result = TxResult{Code: code, Info: info}
	return nil
}

func (c *classifier) RawTx(*txs.RawTx) error {
	return c.set(InvalidTx, infoRawTx)
}

func (c *classifier) ProtocolTx(tx *txs.ProtocolTx) error {
	switch payload := tx.Payload.(type) {
	case *txs.EthereumEventsDigest:
		c.batch.Digests++
		return c.digest(payload)
	default:
		return c.set(InvalidTx, infoUnsupportedProtocol)
	}
}

func (c *classifier) digest(payload *txs.EthereumEventsDigest) error {
	digest, err := payload.Digest(c.Compressor)
	if err != nil {
		return c.set(InvalidTx, err.Error())
	}

	valid, errs := vext.ValidateList(c.Validators, digest.Decompress(c.batch.LastHeight), c.batch.LastHeight)
	if len(errs) > 0 {
		c.Log.Debug("dropped invalid vote extensions",
			log.Uint64("lastHeight", c.batch.LastHeight),
			log.Int("numInvalid", len(errs)),
			log.Err(errors.Join(errs...)),
		)
		return c.set(InvalidVoteExtension, infoInvalidVoteExtension)
	}

	power := votingpower.Zero
	for _, v := range valid {
		power, err = power.Add(v.VotingPower)
		if err != nil {
			return c.set(InvalidVoteExtension, err.Error())
		}
	}
	if !votingpower.HasQuorum(power) {
		return c.set(InvalidVoteExtension, infoInsufficientStake)
	}
	return c.set(Ok, infoAccepted)
}

func (c *classifier) DecryptedTx(tx *txs.DecryptedTx) error {
	wrapper, ok := c.batch.Cursor.Next()
	if !ok {
		return c.set(ExtraTxs, infoExtraTxs)
	}
	txHash, err := tx.Inner.HashCommitment()
	if err != nil {
		return err
	}
	if txHash != wrapper.TxHash {
		return c.set(InvalidOrder, infoInvalidOrder)
	}
	return c.set(Ok, infoAccepted)
}

func (c *classifier) UndecryptableTx(tx *txs.UndecryptableTx) error {
	wrapper, ok := c.batch.Cursor.Next()
	if !ok {
		return c.set(ExtraTxs, infoExtraTxs)
	}
	if tx.Wrapper.TxHash != wrapper.TxHash {
		return c.set(InvalidOrder, infoInvalidOrder)
	}
	if _, err := wrapper.DecryptInner(c.DecryptionKey); err == nil {
		return c.set(InvalidTx, infoFalselyUndecryptable)
	}
	return c.set(Ok, infoAccepted)
}

func (c *classifier) WrapperTx(tx *txs.WrapperTx) error {
	if err := tx.Payload.Validate(); err != nil {
		return c.set(InvalidTx, err.Error())
	}
	balance, err := storage.ReadAmount(c.state, storage.BalanceKey(tx.Fee.Token, tx.FeePayer()))
	if err != nil {
		return c.set(InvalidTx, err.Error())
	}
	if balance.Lt(&tx.Fee.Amount) {
		return c.set(InvalidTx, infoInsufficientFee)
	}
	return c.set(Ok, infoAccepted)
}
