// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"errors"
	"math"

	"github.com/luxfi/codec"
	"github.com/luxfi/codec/linearcodec"
)

const CodecVersion = 0

var Codec codec.Manager

func init() {
	Codec = codec.NewManager(math.MaxInt)
	lc := linearcodec.NewDefault()

	// Type IDs are consensus critical. New kinds must be appended.
	err := errors.Join(
		lc.RegisterType(&RawTx{}),
		lc.RegisterType(&WrapperTx{}),
		lc.RegisterType(&DecryptedTx{}),
		lc.RegisterType(&UndecryptableTx{}),
		lc.RegisterType(&ProtocolTx{}),
		lc.RegisterType(&EthereumEventsDigest{}),
		lc.RegisterType(&ValidatorSetUpdate{}),
		Codec.RegisterCodec(CodecVersion, lc),
	)
	if err != nil {
		panic(err)
	}
}
