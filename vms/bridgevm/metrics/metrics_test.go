// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/metric"

	"github.com/luxfi/ethbridge/vms/bridgevm/txs"
)

func TestMetrics(t *testing.T) {
	require := require.New(t)

	m, err := New(metric.NewRegistry())
	require.NoError(err)

	m.MarkProposal(true)
	m.MarkProposal(false)
	m.MarkTxResult("ok")
	m.MarkDerivedTx(2)
	m.MarkEventsForwarded(3)

	tx, err := txs.NewTx(&txs.RawTx{})
	require.NoError(err)
	require.NoError(m.MarkTxFinalized(tx))
}
