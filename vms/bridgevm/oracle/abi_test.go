// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"

	"github.com/luxfi/ethbridge/vms/bridgevm/ethevents"
)

func TestDecodeLog(t *testing.T) {
	var (
		asset    = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
		receiver = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	)
	tests := []struct {
		name                  string
		contract              string
		expectedEvent         ethevents.Event
		expectedConfirmations uint64
	}{
		{
			name:     "transfer to lux",
			contract: transferToLuxEvent,
			expectedEvent: ethevents.NewTransfersToLux(7, ethevents.TransferToLux{
				Amount:   *uint256.NewInt(1_000),
				Asset:    asset,
				Receiver: ids.ShortID(receiver),
			}),
			expectedConfirmations: 60,
		},
		{
			name:     "transfer to ethereum",
			contract: transferToEthereumEvent,
			expectedEvent: ethevents.NewTransfersToEthereum(7, ethevents.TransferToEthereum{
				Amount:   *uint256.NewInt(1_000),
				Asset:    asset,
				Receiver: receiver,
			}),
			expectedConfirmations: 60,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			l := packLog(t, BridgeABI, bridgeAddress, test.contract, 1,
				big.NewInt(7),
				[]common.Address{asset},
				[]*big.Int{big.NewInt(1_000)},
				[]common.Address{receiver},
				uint32(60),
			)
			event, confirmations, err := decodeLog(BridgeABI, &l)
			require.NoError(err)
			require.Equal(test.expectedEvent, event)
			require.Equal(test.expectedConfirmations, confirmations)
			require.NoError(event.Verify())
		})
	}
}

func TestDecodeWhitelist(t *testing.T) {
	require := require.New(t)

	token := common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	l := packLog(t, BridgeABI, bridgeAddress, updateBridgeWhitelistEvent, 1,
		big.NewInt(3),
		[]common.Address{token},
		[]*big.Int{big.NewInt(500)},
		uint32(0),
	)
	event, _, err := decodeLog(BridgeABI, &l)
	require.NoError(err)
	require.Equal(ethevents.NewUpdateBridgeWhitelist(3, ethevents.TokenWhitelist{
		Token: token,
		Cap:   *uint256.NewInt(500),
	}), event)
}

func TestDecodeContractEvents(t *testing.T) {
	require := require.New(t)

	addr := common.HexToAddress("0x4444444444444444444444444444444444444444")
	l := packLog(t, GovernanceABI, governanceAddress, upgradedContractEvent, 1, "bridge", addr)
	event, confirmations, err := decodeLog(GovernanceABI, &l)
	require.NoError(err)
	require.Equal(ethevents.NewUpgradedContract(0, "bridge", addr), event)
	require.Zero(confirmations)
}

func TestDecodeLogErrors(t *testing.T) {
	require := require.New(t)

	mismatched := packLog(t, BridgeABI, bridgeAddress, transferToLuxEvent, 1,
		big.NewInt(1),
		[]common.Address{{}, {}},
		[]*big.Int{big.NewInt(1)},
		[]common.Address{{}},
		uint32(0),
	)
	_, _, err := decodeLog(BridgeABI, &mismatched)
	require.ErrorIs(err, ErrLengthMismatch)

	// Governance events are unknown to the bridge contract.
	governance := newContractLog(t, 1, "Test")
	_, _, err = decodeLog(BridgeABI, &governance)
	require.ErrorIs(err, ErrUnknownEvent)

	governance.Topics = nil
	_, _, err = decodeLog(GovernanceABI, &governance)
	require.ErrorIs(err, ErrUnknownEvent)
}
