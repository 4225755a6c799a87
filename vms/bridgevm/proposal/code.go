// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proposal

import "fmt"

// Code is the admission outcome of one proposed transaction.
type Code uint8

const (
	Ok Code = iota
	InvalidTx
	InvalidSig
	WasmRuntimeError
	InvalidOrder
	ExtraTxs
	Undecryptable
	InvalidVoteExtension
)

// IsRecoverable reports whether a transaction with this code may stay in an
// accepted block, to fail later during execution.
func (c Code) IsRecoverable() bool {
	switch c {
	case Ok, InvalidTx, InvalidSig, WasmRuntimeError:
		return true
	default:
		return false
	}
}

func (c Code) String() string {
	switch c {
	case Ok:
		return "ok"
	case InvalidTx:
		return "invalid_tx"
	case InvalidSig:
		return "invalid_sig"
	case WasmRuntimeError:
		return "wasm_runtime_error"
	case InvalidOrder:
		return "invalid_order"
	case ExtraTxs:
		return "extra_txs"
	case Undecryptable:
		return "undecryptable"
	case InvalidVoteExtension:
		return "invalid_vote_extension"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}
