// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"

	"github.com/luxfi/metric"

	"github.com/luxfi/ethbridge/vms/bridgevm/txs"
)

const (
	decisionLabel = "decision"
	codeLabel     = "code"
)

var _ Metrics = (*metricsImpl)(nil)

type Metrics interface {
	// MarkProposal records the block level decision on a proposal.
	MarkProposal(accepted bool)
	// MarkTxResult records the admission code of one proposed transaction.
	MarkTxResult(code string)
	// MarkTxFinalized records the kind of a transaction applied by a block.
	MarkTxFinalized(tx *txs.Tx) error
	// MarkDerivedTx records one application of a vote extension digest and
	// the number of events it confirmed.
	MarkDerivedTx(confirmed int)
	// MarkEventsForwarded records events the oracle handed to the ledger.
	MarkEventsForwarded(n int)
}

type metricsImpl struct {
	txMetrics *txMetrics

	proposals       metric.CounterVec
	txResults       metric.CounterVec
	derivedTxs      metric.Counter
	confirmedEvents metric.Counter
	forwardedEvents metric.Counter
}

func (m *metricsImpl) MarkProposal(accepted bool) {
	decision := "rejected"
	if accepted {
		decision = "accepted"
	}
	m.proposals.With(metric.Labels{
		decisionLabel: decision,
	}).Inc()
}

func (m *metricsImpl) MarkTxResult(code string) {
	m.txResults.With(metric.Labels{
		codeLabel: code,
	}).Inc()
}

func (m *metricsImpl) MarkTxFinalized(tx *txs.Tx) error {
	return tx.Unsigned.Visit(m.txMetrics)
}

func (m *metricsImpl) MarkDerivedTx(confirmed int) {
	m.derivedTxs.Inc()
	m.confirmedEvents.Add(float64(confirmed))
}

func (m *metricsImpl) MarkEventsForwarded(n int) {
	m.forwardedEvents.Add(float64(n))
}

func New(registerer metric.Registerer) (Metrics, error) {
	m := &metricsImpl{
		txMetrics: newTxMetrics(),
		proposals: metric.NewCounterVec(
			metric.CounterOpts{
				Name: "bridge_proposals",
				Help: "number of processed proposals by decision",
			},
			[]string{decisionLabel},
		),
		txResults: metric.NewCounterVec(
			metric.CounterOpts{
				Name: "bridge_proposal_tx_results",
				Help: "number of proposed transactions by admission code",
			},
			[]string{codeLabel},
		),
		derivedTxs: metric.NewCounter(metric.CounterOpts{
			Name: "bridge_derived_txs",
			Help: "number of applied vote extension digests",
		}),
		confirmedEvents: metric.NewCounter(metric.CounterOpts{
			Name: "bridge_confirmed_events",
			Help: "number of Ethereum events that reached quorum",
		}),
		forwardedEvents: metric.NewCounter(metric.CounterOpts{
			Name: "bridge_oracle_forwarded_events",
			Help: "number of confirmed Ethereum events forwarded by the oracle",
		}),
	}

	return m, errors.Join(
		registerer.Register(metric.AsCollector(m.txMetrics.numTxs)),
		registerer.Register(metric.AsCollector(m.proposals)),
		registerer.Register(metric.AsCollector(m.txResults)),
		registerer.Register(metric.AsCollector(m.derivedTxs)),
		registerer.Register(metric.AsCollector(m.confirmedEvents)),
		registerer.Register(metric.AsCollector(m.forwardedEvents)),
	)
}
