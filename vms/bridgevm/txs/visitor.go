// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

// Visitor runs custom logic against the concrete transaction kinds.
type Visitor interface {
	RawTx(*RawTx) error
	WrapperTx(*WrapperTx) error
	DecryptedTx(*DecryptedTx) error
	UndecryptableTx(*UndecryptableTx) error
	ProtocolTx(*ProtocolTx) error
}
