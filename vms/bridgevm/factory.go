// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
)

// VMID is the unique identifier of the Ethereum bridge VM.
var VMID = ids.ID{'e', 't', 'h', 'b', 'r', 'i', 'd', 'g', 'e'}

// Factory creates new bridge VM instances.
type Factory struct{}

func (*Factory) New(logger log.Logger) (interface{}, error) {
	return &VM{log: logger}, nil
}
