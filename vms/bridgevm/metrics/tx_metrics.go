// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/luxfi/metric"

	"github.com/luxfi/ethbridge/vms/bridgevm/txs"
)

const txLabel = "tx"

var (
	_ txs.Visitor = (*txMetrics)(nil)

	txLabels = []string{txLabel}
)

type txMetrics struct {
	numTxs metric.CounterVec
}

func newTxMetrics() *txMetrics {
	return &txMetrics{
		numTxs: metric.NewCounterVec(
			metric.CounterOpts{
				Name: "bridge_txs_finalized",
				Help: "number of transactions finalized",
			},
			txLabels,
		),
	}
}

func (m *txMetrics) mark(kind string) error {
	m.numTxs.With(metric.Labels{
		txLabel: kind,
	}).Inc()
	return nil
}

func (m *txMetrics) RawTx(*txs.RawTx) error {
	return m.mark("raw")
}

func (m *txMetrics) WrapperTx(*txs.WrapperTx) error {
	return m.mark("wrapper")
}

func (m *txMetrics) DecryptedTx(*txs.DecryptedTx) error {
	return m.mark("decrypted")
}

func (m *txMetrics) UndecryptableTx(*txs.UndecryptableTx) error {
	return m.mark("undecryptable")
}

func (m *txMetrics) ProtocolTx(*txs.ProtocolTx) error {
	return m.mark("protocol")
}
