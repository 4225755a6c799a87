// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package oracle watches an Ethereum node for bridge events and forwards
// them to the ledger once they are final.
package oracle

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	ethereum "github.com/luxfi/geth"

	"github.com/luxfi/ethbridge/vms/bridgevm/ethevents"
	"github.com/luxfi/ethbridge/vms/bridgevm/metrics"
)

const (
	DefaultMinConfirmations = 50
	DefaultPollInterval     = time.Second
)

type Config struct {
	// MinConfirmations is the depth an event must reach before it is
	// forwarded.
	MinConfirmations   uint64
	PollInterval       time.Duration
	BridgeContract     common.Address
	GovernanceContract common.Address
}

type pendingEvent struct {
	event         ethevents.Event
	block         uint64
	confirmations uint64
}

func (p *pendingEvent) confirmed(latest uint64) bool {
	return latest >= p.block && latest-p.block >= p.confirmations
}

// Oracle polls [client] and sends confirmed events to [sender]. Pending
// events only live in memory. They are re-observed after a restart.
type Oracle struct {
	log     log.Logger
	client  Client
	sender  *Sender[ethevents.Event]
	config  Config
	metrics metrics.Metrics

	pending []pendingEvent
	// lastScanned is the last block whose logs were collected.
	lastScanned uint64
	scanned     bool
}

func New(
	log log.Logger,
	client Client,
	sender *Sender[ethevents.Event],
	config Config,
	metrics metrics.Metrics,
) *Oracle {
	if config.MinConfirmations == 0 {
		config.MinConfirmations = DefaultMinConfirmations
	}
	if config.PollInterval == 0 {
		config.PollInterval = DefaultPollInterval
	}
	return &Oracle{
		log:     log,
		client:  client,
		sender:  sender,
		config:  config,
		metrics: metrics,
	}
}

// Run polls until [ctx] is done or the receiver hangs up. Errors talking to
// the Ethereum node are retried. ErrDisconnected is returned once the
// receiver is gone.
func (o *Oracle) Run(ctx context.Context) error {
	o.log.Info("Ethereum event oracle is starting",
		log.Uint64("minConfirmations", o.config.MinConfirmations),
	)
	defer o.log.Info("Ethereum event oracle is no longer running")

	for {
		if !o.sender.Connected() {
			o.log.Info("Ethereum oracle could not send events to the ledger; the receiver has hung up. Shutting down")
			return ErrDisconnected
		}
		if err := o.poll(ctx); err != nil {
			if errors.Is(err, ErrDisconnected) {
				o.log.Info("Ethereum oracle could not send events to the ledger; the receiver has hung up. Shutting down")
				return err
			}
			if ctx.Err() == nil {
				o.log.Debug("failed to poll Ethereum node",
					log.Err(err),
				)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(o.config.PollInterval):
		}
	}
}

// poll scans the blocks that reached the confirmation depth since the last
// call and forwards every pending event that is now final.
func (o *Oracle) poll(ctx context.Context) error {
	latest, err := o.client.BlockNumber(ctx)
	if err != nil {
		return err
	}
	if latest < o.config.MinConfirmations {
		return nil
	}

	toScan := latest - o.config.MinConfirmations
	if !o.scanned || toScan > o.lastScanned {
		from := toScan
		if o.scanned {
			from = o.lastScanned + 1
		}
		if err := o.scan(ctx, from, toScan); err != nil {
			return err
		}
		o.lastScanned = toScan
		o.scanned = true
	}
	return o.forward(latest)
}

func (o *Oracle) scan(ctx context.Context, from, to uint64) error {
	logs, err := o.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{
			o.config.BridgeContract,
			o.config.GovernanceContract,
		},
	})
	if err != nil {
		return err
	}

	for i := range logs {
		l := &logs[i]
		var contract abi.ABI
		switch l.Address {
		case o.config.BridgeContract:
			contract = BridgeABI
		case o.config.GovernanceContract:
			contract = GovernanceABI
		default:
			continue
		}

		event, confirmations, err := decodeLog(contract, l)
		if err == nil {
			err = event.Verify()
		}
		if err != nil {
			o.log.Debug("dropping undecodable log",
				log.Stringer("txID", l.TxHash),
				log.Uint64("block", l.BlockNumber),
				log.Err(err),
			)
			continue
		}
		o.pending = append(o.pending, pendingEvent{
			event:         event,
			block:         l.BlockNumber,
			confirmations: max(confirmations, o.config.MinConfirmations),
		})
	}
	return nil
}

func (o *Oracle) forward(latest uint64) error {
	var (
		stillPending = o.pending[:0]
		confirmed    []ethevents.Event
	)
	for _, p := range o.pending {
		if p.confirmed(latest) {
			confirmed = append(confirmed, p.event)
		} else {
			stillPending = append(stillPending, p)
		}
	}
	o.pending = stillPending

	for _, event := range confirmed {
		if err := o.sender.Send(event); err != nil {
			return err
		}
	}
	if len(confirmed) > 0 {
		o.metrics.MarkEventsForwarded(len(confirmed))
		o.log.Debug("forwarded confirmed Ethereum events",
			log.Int("numEvents", len(confirmed)),
			log.Uint64("latestBlock", latest),
		)
	}
	return nil
}

// Handle owns a running oracle.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Start runs the oracle in a new goroutine.
func (o *Oracle) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(h.done)
		h.err = o.Run(ctx)
	}()
	return h
}

// Aborted is closed once the oracle stopped, for any reason.
func (h *Handle) Aborted() <-chan struct{} {
	return h.done
}

// Close stops the oracle and waits for it to exit.
func (h *Handle) Close() error {
	h.cancel()
	<-h.done
	return h.err
}
